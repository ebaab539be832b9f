// Package logtail reads the tail of the reader's JSON log file.
//
// # Overview
//
// During an interactive run the logging package writes zerolog JSON lines
// to <state_dir>/palimpseste.log so the terminal stays clean. This package
// reads those lines back for two consumers:
//
//   - the journal panel of the TUI, refreshed on a tick
//   - the palimpseste logs command
//
// # Reading
//
// Read returns the last N lines of a file. It streams the file through a
// bufio.Scanner into a ring buffer of N slots, so memory stays bounded by N
// whatever the file size. N <= 0 returns every line. A missing file is not
// an error and yields no lines; the log only exists after the first run.
//
// Lines up to 1 MiB are accepted.
//
// # Parsing
//
// Parse decodes one line into an Entry:
//
//   - time: RFC 3339 timestamp written by zerolog
//   - level: trace, debug, info, warn, error
//   - component: the field added by logging.Component
//   - message: the log message
//
// Every other key is kept in Entry.Fields. A line that is not a JSON object
// is returned untouched in Entry.Raw, so console-formatted or truncated
// lines still show up. Tail combines Read and Parse and drops blank lines.
//
// # Formatting
//
// Format renders an Entry on one line:
//
//	15:04:05 INFO  [bootstrap] ready elapsed=12ms phase=wiring
//
// The time is shown in local time and omitted when absent. Extra fields are
// sorted by key so the output is stable.
//
// # Usage Example
//
//	entries, err := logtail.Tail(cfg.LogPath(), 20)
//	if err != nil {
//		return err
//	}
//	for _, e := range entries {
//		fmt.Println(logtail.Format(e))
//	}
package logtail
