// Package ui renders the terminal output of the bl1prov commands.
//
// Output is plain text styled with Lip Gloss: a header box naming the
// command and its parameters, a step list for multi-stage operations, and
// a success, failure or warning box at the end. Everything is written
// through a Printer so commands can be run against a buffer in tests.
//
// The only interactive piece is the secure boot confirmation. On a
// terminal it runs as a small Bubble Tea program; on pipes and in tests it
// reads one line. Either way only "Y" or "YES" (any case) proceeds.
//
// Logging is separate: zap output is silent unless BL1PROV_LOG_LEVEL is
// set, so it does not interleave with the curated UI.
package ui
