// Package diagnostics gathers the resource figures printed alongside
// stack dumps, and describes other processes for the dump command.
//
//   - Collector takes Snapshots of the current process: goroutines, heap,
//     open file descriptors and system memory and load.
//   - DumpHandler renders a Snapshot after each SIGUSR2 stack dump.
//   - DescribeProcess looks up a pid before it is signalled.
package diagnostics
