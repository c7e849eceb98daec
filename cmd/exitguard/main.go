package main

import (
	"time"

	"github.com/hugo-lorenzo-mato/exitguard/cmd/exitguard/cmd"
	"github.com/hugo-lorenzo-mato/exitguard/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/exitguard/internal/fault"
)

// Version information - set by goreleaser at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	started := time.Now()

	ctl := fault.New()
	ctl.InstallGlobalHook(nil, "")
	defer ctl.Recover()
	fault.OnDumpSignal(diagnostics.DumpHandler(diagnostics.NewCollector(started)))

	cmd.SetVersion(version, commit, date)
	cmd.SetController(ctl)

	ctl.Run(cmd.Execute)
}
