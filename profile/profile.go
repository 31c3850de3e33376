package profile

// Tag is the build tag that compiles profiling in. It also names the
// default output subdirectory.
const Tag = "pprof"

// Profiler selects what to profile and where to write it.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Option modifies a [Profiler].
type Option func(Profiler) Profiler

// New returns a Profiler with opts applied.
func New(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		p = opt(p)
	}

	return p
}

// WithMode sets the profiling mode, one of [Modes].
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath sets the output directory.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithQuiet suppresses the profiler's own log output.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

// Enabled reports whether Start would begin profiling.
func (p Profiler) Enabled() bool { return p.Mode != "" && supported(p.Mode) }

// Start begins profiling and returns its stopper. Both Start and Stop are
// always safe to call; an empty or unsupported mode profiles nothing.
func (p Profiler) Start() interface{ Stop() } {
	if !p.Enabled() {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
