// Package fault owns process-wide fault handling and termination.
//
// A single Controller is created at the top of main and installed as the
// active hook before anything else runs:
//
//	ctl := fault.New()
//	ctl.InstallGlobalHook(nil, "")
//	defer ctl.Recover()
//
// From then on:
//
//   - Any panic that reaches a deferred Recover (main, goroutines started via
//     Controller.Go, or the package-level Recover) is formatted, appended to
//     <workdir>/logs/exceptions.log and ends the process with status 1.
//
//   - SIGUSR2 writes the stacks of all goroutines to the trace stream and
//     leaves the process running. Other listeners for the signal keep
//     receiving it.
//
//   - Exit, ExitAndFail and Run are the only sanctioned ways to terminate.
//     The termination primitive is captured once in New.
//
// Crash logging is best effort: failures are reported through the fallback
// logger and never change how the process terminates.
package fault
