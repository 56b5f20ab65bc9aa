package ivrflow

// Version is the release of the engine. Overridden at build time with -ldflags.
var Version = "0.1.0-dev"
