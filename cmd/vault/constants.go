package main

// Exit prompts.
const (
	lockoutPrompt = "Too many failed attempts. Forgot your password? Resetting deletes every record."
	resetPrompt   = "Reset the password? This deletes every record."
)

// Valid --on-conflict values for import.
var validConflicts = []string{"skip", "report"}

// Valid --format values for export.
var validExportFormats = []string{"json", "csv"}
