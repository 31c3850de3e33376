// Package profile starts optional runtime profiling with
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	synth render --pprof-mode cpu --pprof-dir ./prof page.tmpl
//	go tool pprof -http=: ./prof/cpu.pprof
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a stopper
// that does nothing, so callers never need their own build constraints.
package profile
