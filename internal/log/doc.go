// Package log builds the slog loggers used across stubreport.
//
// Every logger passes its records through a PathHandler, which rewrites
// absolute file system paths in attribute values:
//   - paths under the working directory become relative ("out/index.md")
//   - paths under the home directory start with "~" ("~/.stubreport")
//   - other values are left untouched
//
// Registry files and output directories show up in nearly every log line,
// and with the rewrite a log captured on one machine reads the same as on
// another.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("artifact written", "path", "/home/me/src/api/out/index.md")
//	// path=out/index.md when run from /home/me/src/api
//
//	slog.SetDefault(logger)
package log
