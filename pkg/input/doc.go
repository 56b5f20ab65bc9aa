// Package input turns raw caller input into something the resolver can act on.
//
// Sanitize enforces size and encoding limits, Normalize folds case and whitespace,
// and Classify decides whether an input is a keypad control code or free text.
package input
