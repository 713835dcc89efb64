package ocr

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_CapturesStdoutAndStderr(t *testing.T) {
	r := newExecRunner(nil)

	out, errb, err := r.Run(context.Background(), "sh", "-c", "echo out; echo noise >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", string(out))
	assert.Equal(t, "noise\n", string(errb))
}

func TestExecRunner_ContextDeadlineKillsCommand(t *testing.T) {
	r := newExecRunner(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := r.Run(ctx, "sh", "-c", "sleep 5")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("x", 100)
	got := truncate(long, 10)
	assert.True(t, strings.HasPrefix(got, "xxxxxxxxxx"))
	assert.True(t, strings.HasSuffix(got, "...(truncated)"))
	assert.Len(t, got, 10+len("...(truncated)"))
}
