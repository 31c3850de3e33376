package library

import (
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/synth/lang"
)

// ExprName is the name of the library of expr-lang evaluation.
const ExprName = "expr"

// programs caches compiled programs by the hash of their source.
var programs sync.Map // uint64 -> compiled

// compiled is a cached program with the source it was compiled from, so a
// hash collision compiles afresh instead of running the wrong program.
type compiled struct {
	src     string
	program *vm.Program
}

// Compile returns the compiled program for src, reusing a previous
// compilation of the same source.
func Compile(src string) (*vm.Program, error) {
	key := xxh3.HashString(src)

	if c, ok := programs.Load(key); ok && c.(compiled).src == src {
		return c.(compiled).program, nil
	}

	p, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, lang.ErrEvaluation.Wrap(err).With(
			slog.String("reason", "expression does not compile"),
			slog.String("source", src),
		)
	}

	actual, _ := programs.LoadOrStore(key, compiled{src: src, program: p})
	if c := actual.(compiled); c.src == src {
		return c.program, nil
	}

	return p, nil
}

// Eval compiles src and runs it against env.
func Eval(src string, env map[string]any) (lang.Value, error) {
	p, err := Compile(src)
	if err != nil {
		return lang.Undefined, err
	}

	out, err := expr.Run(p, env)
	if err != nil {
		return lang.Undefined, lang.ErrEvaluation.Wrap(err).With(
			slog.String("reason", "expression failed"),
			slog.String("source", src),
		)
	}

	return lang.FromNative(out), nil
}

// Env converts a render context into an expr-lang environment.
func Env(data lang.Context) map[string]any {
	env := make(map[string]any, len(data))
	for k, v := range data {
		env[k] = v.Native()
	}

	return env
}

func exprs() (*lang.Library, error) {
	return lang.NewLibrary(ExprName,
		lang.WithTag("expr", lang.MonadicTag(exprTag)),
		lang.WithFilter("expr", exprFilter),
	)
}

// exprTag evaluates its source argument against the render context.
// Keyword arguments are bound on top of the context for the evaluation only.
func exprTag(inv *lang.Invocation) (lang.Value, error) {
	if err := lang.Arity(inv.Name, inv.Args, 1, 1); err != nil {
		return lang.Undefined, err
	}

	env := Env(inv.Data)
	for k, v := range inv.Kwargs {
		env[k] = v.Native()
	}

	return Eval(inv.Args[0].String(), env)
}

// exprFilter evaluates its argument with the filtered value bound to value.
func exprFilter(v lang.Value, args ...lang.Value) (lang.Value, error) {
	if len(args) != 1 {
		return lang.Undefined, lang.ErrEvaluation.With(
			slog.String("filter", "expr"),
			slog.String("reason", "missing expression"),
		)
	}

	return Eval(args[0].String(), map[string]any{"value": v.Native()})
}
