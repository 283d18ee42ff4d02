// Command dqstudio is the data-quality rule authoring studio.
package main

import (
	"os"

	"github.com/leapstack-labs/dqstudio/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
