// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] adds a Trace level below Debug and helpers that accept only
// [slog.Attr] values. Configuration is applied with functional options when
// the logger is made:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("template rendered", slog.Int("bytes", n))
//
// # Package-level logger
//
// The package keeps a default logger writing to standard error. [Config]
// reconfigures it, and [Trace], [Debug], [Info], [Warn], and [Error] write
// to it. Context-unaware functions use [DefaultContextProvider], which
// returns [context.TODO] unless replaced.
//
// # Output
//
// Two formats are supported, [FormatText] and [FormatJSON]. With
// [WithPretty] enabled, records are colorized when the output is a
// terminal, and JSON records are indented.
package log
