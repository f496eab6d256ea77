// Command prodsim runs the producer/consumer simulation.
package main

import (
	"fmt"
	"os"

	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
)

// Exit codes
const (
	exitError = 1
	exitFatal = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "prodsim:", err)
		if gferrors.IsFatal(err) {
			os.Exit(exitFatal)
		}
		os.Exit(exitError)
	}
}
