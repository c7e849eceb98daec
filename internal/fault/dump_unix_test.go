//go:build !windows

package fault

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpSignal_WritesStacks(t *testing.T) {
	restoreActive(t)
	tc := newTestController(t)
	out := &syncBuffer{}

	// A listener registered earlier by other code keeps receiving.
	other := make(chan os.Signal, 1)
	signal.Notify(other, syscall.SIGUSR2)
	t.Cleanup(func() { signal.Stop(other) })

	tc.InstallGlobalHook(out, "")
	t.Cleanup(tc.Close)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "goroutine ")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "stack dump for pid")

	select {
	case sig := <-other:
		assert.Equal(t, syscall.SIGUSR2, sig)
	case <-time.After(5 * time.Second):
		t.Fatal("earlier listener did not receive the signal")
	}
}

func TestDumpSignal_Rearm(t *testing.T) {
	restoreActive(t)
	tc := newTestController(t)
	first := &syncBuffer{}
	second := &syncBuffer{}

	tc.InstallGlobalHook(first, "")
	tc.InstallGlobalHook(second, "")
	t.Cleanup(tc.Close)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))

	require.Eventually(t, func() bool {
		return strings.Contains(second.String(), "stack dump for pid")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, first.String())
}

func TestDumpSignal(t *testing.T) {
	assert.Equal(t, syscall.SIGUSR2, DumpSignal)
}
