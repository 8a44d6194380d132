// ABOUTME: Entry point for the pettrip CLI
// ABOUTME: Terminal client for the Pet Travel assistant with session handling

package main

import (
	"fmt"
	"os"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
