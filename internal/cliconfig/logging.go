package cliconfig

import (
	"os"

	"github.com/bft-labs/marketcart/pkg/log"
)

// Logger returns the CLI logger: console output on stderr at the given level.
func Logger(level string) *log.ZerologAdapter {
	return log.NewZerologAdapter(os.Stderr, level)
}
