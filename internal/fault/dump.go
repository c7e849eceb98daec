package fault

import (
	"fmt"
	"io"
	"os"
	"os/signal"
)

type dumpTrigger struct {
	sigCh  chan os.Signal
	done   chan struct{}
	exited chan struct{} // closed when dumpLoop returns
}

func newDumpTrigger() *dumpTrigger {
	return &dumpTrigger{
		sigCh:  make(chan os.Signal, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// stop unregisters the trigger and waits for a dump in progress to finish,
// so the caller may close the stream afterwards.
func (t *dumpTrigger) stop() {
	signal.Stop(t.sigCh)
	close(t.done)
	<-t.exited
}

// armDumpTrigger (re)registers the diagnostic signal for c. os/signal
// delivers to every registered channel, so earlier listeners keep working.
// The new channel is registered before the old one is stopped; the signal
// must never fall back to its default, terminating action. It returns once
// the previous trigger has stopped writing to its stream.
func (c *Controller) armDumpTrigger(w io.Writer) {
	t := newDumpTrigger()

	c.mu.Lock()
	prev := c.dump
	c.dump = nil
	armed := notifyDump(t.sigCh)
	if armed {
		c.dump = t
	}
	c.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	if armed {
		go c.dumpLoop(t, w)
	}
}

func (c *Controller) dumpLoop(t *dumpTrigger, w io.Writer) {
	defer close(t.exited)
	for {
		select {
		case <-t.done:
			return
		case sig := <-t.sigCh:
			c.logger.Debug("stack dump requested", "signal", sig)
			c.DumpStacks(w)
		}
	}
}

// DumpStacks writes the stacks of all goroutines to w, then runs the
// handlers chained with OnDumpSignal. It never panics.
func (c *Controller) DumpStacks(w io.Writer) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("stack dump failed", "panic", r)
		}
	}()

	fmt.Fprintf(w, "stack dump for pid %d at %s\n", c.pid, c.now().Format("2006-01-02T15:04:05.000Z07:00"))
	_, _ = w.Write(Stack(true))
	_, _ = io.WriteString(w, "\n")

	for _, fn := range chainedDumpHandlers() {
		c.runDumpHandler(fn, w)
	}
}

func (c *Controller) runDumpHandler(fn func(w io.Writer), w io.Writer) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("chained dump handler panicked", "panic", r)
		}
	}()
	fn(w)
}

// Close disarms the diagnostic signal and uninstalls c if it is the active
// hook. The signal keeps its handler while any other listener remains.
func (c *Controller) Close() {
	c.mu.Lock()
	t := c.dump
	c.dump = nil
	c.mu.Unlock()
	if t != nil {
		t.stop()
	}
	active.CompareAndSwap(c, nil)
}
