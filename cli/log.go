package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/synth/log"
)

// logFormat configures the logger format as a side effect of parsing via
// encoding.TextUnmarshaler, so that it applies to errors reported while
// parsing the rest of the command line.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing via
// encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevel}"  enum:"${logLevels}"  help:"Set log level."`
	Format     logFormat `default:"${logFormat}" enum:"${logFormats}" help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                           help:"Set timestamp format."`
	Caller     bool      `default:"false"                             help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                              help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevel":   log.DefaultLevel.String(),
		"logLevels":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormat":  log.DefaultFormat.String(),
		"logFormats": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan applies logger flags found in args before kong parses them.
//
// Level and format also take effect during parsing through their
// TextUnmarshaler, but boolean flags do not, and a flag that follows a
// parse error would never be reached.
func (f *logConfig) scan(args []string) {
	toggles := map[string]struct {
		ptr *bool
		opt func(bool) log.Option
	}{
		"caller": {&f.Caller, log.WithCaller},
		"pretty": {&f.Pretty, log.WithPretty},
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		name, negated := strings.CutPrefix(arg, "--no-log-")
		if !negated {
			var ok bool
			if name, ok = strings.CutPrefix(arg, "--log-"); !ok {
				continue
			}
		}

		name, value, assigned := strings.Cut(name, "=")

		if toggle, ok := toggles[name]; ok {
			v := true
			if assigned {
				b, err := strconv.ParseBool(value)
				if err != nil {
					continue
				}

				v = b
			}

			*toggle.ptr = v != negated
			log.Config(toggle.opt(*toggle.ptr))

			continue
		}

		if negated {
			continue
		}

		// Non-boolean flags consume the next argument unless assigned.
		if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			value = args[i+1]
			i++
		}

		switch name {
		case "level":
			_ = f.Level.UnmarshalText([]byte(value))

		case "format":
			_ = f.Format.UnmarshalText([]byte(value))
		}
	}
}
