package bot

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// fatalRestartDelay keeps a supervisor from restarting a misconfigured bot
// in a tight loop.
var fatalRestartDelay = 5 * time.Second

var exitProcess = os.Exit

// FatalWithWait logs a fatal startup error, waits fatalRestartDelay and
// exits with status 1.
func FatalWithWait(format string, args ...any) {
	log.WithLevel(zerolog.FatalLevel).Msgf(format, args...)
	time.Sleep(fatalRestartDelay)
	exitProcess(1)
}
