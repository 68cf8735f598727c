package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, malformed command, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable config, invalid data dir)
	ExitDataError   = 3 // Data error (unknown table, type mismatch, corrupt document)
)
