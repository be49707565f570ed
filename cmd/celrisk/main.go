// Command celrisk runs NPV tail-risk analyses from the command line and can
// also start the HTTP service.
package main

import (
	"os"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
