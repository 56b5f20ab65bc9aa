// Package file provides filesystem adapters: a flow-definition source backed by a
// directory of YAML files, a JSON session store and a call-summary sink.
package file
