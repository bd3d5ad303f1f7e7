// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/ioutil"
	"github.com/doyaGu/nmo/pkg/nmofile"
)

var cmdInfo = &cobra.Command{
	Use:   "info [file]",
	Short: "Describe a scene file",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

var flagInfo struct {
	Dump    bool
	NoColor bool
}

func init() {
	cmdMain.AddCommand(cmdInfo)
	cmdInfo.Flags().BoolVar(&flagInfo.Dump, "dump", false, "Dump each object's full structure")
	cmdInfo.Flags().BoolVar(&flagInfo.NoColor, "no-color", false, "Disable colored output")
}

func runInfo(_ *cobra.Command, args []string) {
	if flagInfo.NoColor {
		color.NoColor = true
	}

	f, err := ioutil.OpenMapped(args[0])
	checkf(err, "open %s", args[0])
	defer func() { _ = f.Close() }()

	r, err := nmofile.Open(f)
	checkf(err, "read %s", args[0])

	heading := color.New(color.Bold, color.FgCyan).PrintfFunc()
	field := color.New(color.FgWhite).PrintfFunc()

	heading("File %s\n", args[0])
	field("  Format version  %d\n", r.Header.FormatVersion)
	field("  Data version    %d\n", r.Header.DataVersion)
	if r.Header.Tool != "" {
		field("  Tool            %s\n", r.Header.Tool)
	}
	field("  Objects         %d\n", r.Header.ObjectCount)

	heading("Sections\n")
	for _, s := range r.Sections {
		field("  %-8v %s\n", s.Type(), humanize.IBytes(uint64(s.Size())))
	}

	a := arena.New(arena.DefaultBlockSize)
	defer a.Destroy()

	objects, err := r.Objects(a)
	check(err)
	if len(objects) == 0 {
		return
	}

	heading("Objects\n")
	for i, c := range objects {
		describeObject(i, c)
	}
}

func describeObject(i int, c *chunk.Chunk) {
	field := color.New(color.FgWhite).PrintfFunc()
	field("  [%d] class %d, data version %d, %s, %d identifiers, %d object refs, %d sub-chunks\n",
		i, c.ClassID(), c.DataVersion(), humanize.IBytes(uint64(c.DataWords())*4),
		len(c.Identifiers()), len(c.ObjectIDPositions()), c.SubChunkCount())

	if flagInfo.Dump {
		dump := spew.NewDefaultConfig()
		dump.Indent = "    "
		dump.DisablePointerAddresses = true
		fmt.Print(dump.Sdump(c))
	}
}
