// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/nmofile"
)

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

func init() {
	cmdMain.AddCommand(cmdVersion)
}

func runVersion(*cobra.Command, []string) {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Printf("nmo %s\n", version)
	fmt.Printf("  container format %d\n", nmofile.Version)
	fmt.Printf("  chunk version    %d\n", chunk.CurrentChunkVersion)
}
