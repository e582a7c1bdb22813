package bot

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestFatalWithWait(t *testing.T) {
	var buf bytes.Buffer
	origLogger, origDelay, origExit := log.Logger, fatalRestartDelay, exitProcess
	t.Cleanup(func() {
		log.Logger, fatalRestartDelay, exitProcess = origLogger, origDelay, origExit
	})

	log.Logger = zerolog.New(&buf)
	fatalRestartDelay = 20 * time.Millisecond
	exitCode := -1
	exitProcess = func(code int) { exitCode = code }

	start := time.Now()
	FatalWithWait("failed to initialize %s: %v", "listing store", "disk full")

	assert.Equal(t, 1, exitCode)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Contains(t, buf.String(), `"level":"fatal"`)
	assert.Contains(t, buf.String(), "failed to initialize listing store: disk full")
}
