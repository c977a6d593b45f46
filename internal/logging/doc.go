// Package logging writes structured JSON logs to a size-rotated file under
// ~/.findtext/logs and reads them back for `findtext logs`.
//
// Normal CLI runs log at info level to the file only. --debug lowers the
// level and mirrors entries to stderr. `findtext serve` never touches stdout
// or stderr because stdout carries the MCP protocol stream.
package logging
