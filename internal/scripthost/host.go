// Package scripthost implements the script host (C1): a pure-Go ECMAScript
// interpreter, via github.com/dop251/goja, that satisfies
// internal/engine.ScriptRuntime structurally.
package scripthost

import (
	"math/rand"

	"github.com/dop251/goja"
)

// Runtime is a single player's sandboxed JavaScript interpreter.
type Runtime struct {
	vm *goja.Runtime
}

// New constructs a Runtime deterministically seeded from seed. The scheduler
// derives seed from a hash of the player's program text (see
// internal/engine's worker.go), so a re-run of the same program always
// observes the same sequence from Math.random().
func New(seed int64) (*Runtime, error) {
	vm := goja.New()
	src := rand.NewSource(seed)
	rnd := rand.New(src)
	vm.SetRandSource(func() float64 { return rnd.Float64() })
	return &Runtime{vm: vm}, nil
}

// Bind installs fn as a global JavaScript function named name. Arguments are
// exported from goja values to plain Go values before fn sees them; fn's
// error, if any, is raised as a catchable JavaScript exception rather than a
// Go panic escaping the VM.
func (r *Runtime) Bind(name string, fn func(args []any) (any, error)) error {
	wrapped := func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a.Export()
		}
		result, err := fn(args)
		if err != nil {
			panic(r.vm.ToValue(err.Error()))
		}
		if result == nil {
			return goja.Undefined()
		}
		return r.vm.ToValue(result)
	}
	return r.vm.Set(name, wrapped)
}

// Run compiles and executes programText to completion.
func (r *Runtime) Run(programText string) error {
	_, err := r.vm.RunString(programText)
	return err
}

// Interrupt asks the running program to abort at its next checked point
// (goja checks between bytecode instructions, so this also breaks infinite
// loops with no blocking calls). Safe to call repeatedly and concurrently;
// that's exactly what the Worker Supervisor's cancellation flood does.
func (r *Runtime) Interrupt(reason any) {
	r.vm.Interrupt(reason)
}
