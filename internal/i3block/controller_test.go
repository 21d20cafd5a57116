package i3block

import (
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePgrep(t *testing.T) {
	pid, ok := parsePgrep("1234\n5678\n")
	assert.True(t, ok)
	assert.Equal(t, 1234, pid)

	_, ok = parsePgrep("")
	assert.False(t, ok)
}

func TestParsePs(t *testing.T) {
	out := `    PID COMMAND
      1 systemd
   4242 i3blocks-contrib
   4243 i3blocks
`
	pid, ok := parsePs(out)
	assert.True(t, ok)
	assert.Equal(t, 4243, pid)

	_, ok = parsePs("  PID COMMAND\n  1 init\n")
	assert.False(t, ok)
}

func TestSignalWithoutPID(t *testing.T) {
	c := NewController(11)
	assert.Equal(t, -1, c.PID())
	assert.ErrorIs(t, c.Signal(), errNotFound)
}

func TestSignalDelivered(t *testing.T) {
	c := NewController(11)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.Signal(sigRTMin+11))
	defer signal.Stop(ch)

	c.setPID(os.Getpid())
	require.NoError(t, c.Signal())

	select {
	case sig := <-ch:
		assert.Equal(t, syscall.Signal(45), sig)
	case <-time.After(2 * time.Second):
		t.Fatal("signal not delivered")
	}
}
