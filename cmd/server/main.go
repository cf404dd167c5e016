// Command server is the crud6 process entrypoint: bring up every
// subsystem through bootstrap.Bootstrap, then serve until a termination
// signal arrives.
package main

import (
	"fmt"
	"os"

	"github.com/forbearing/crud6/bootstrap"
)

func main() {
	if err := bootstrap.Bootstrap(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := bootstrap.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
