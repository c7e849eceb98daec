package fault

import (
	"io"
	"slices"
	"sync"
	"sync/atomic"
)

var active atomic.Pointer[Controller]

// Install makes c the process-wide fault hook and returns the controller it
// replaced. The last install wins.
func Install(c *Controller) *Controller {
	return active.Swap(c)
}

// Active returns the installed controller, or nil.
func Active() *Controller {
	return active.Load()
}

// Recover hands a panic to the active controller. With no controller
// installed the panic continues and the runtime reports it.
//
//	defer fault.Recover()
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	c := Active()
	if c == nil {
		panic(r)
	}
	c.HandleUncaughtFault(KindOf(r), r, Stack(false))
}

var (
	dumpHandlersMu sync.Mutex
	dumpHandlers   []func(w io.Writer)
)

// OnDumpSignal chains fn after the stack dump triggered by the diagnostic
// signal. Handlers run in registration order and write to the same stream.
func OnDumpSignal(fn func(w io.Writer)) {
	dumpHandlersMu.Lock()
	defer dumpHandlersMu.Unlock()
	dumpHandlers = append(dumpHandlers, fn)
}

func chainedDumpHandlers() []func(w io.Writer) {
	dumpHandlersMu.Lock()
	defer dumpHandlersMu.Unlock()
	return slices.Clone(dumpHandlers)
}
