// Command orginv collects a resource inventory across the accounts of an AWS
// Organization and emails it as a zip of CSV files.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
