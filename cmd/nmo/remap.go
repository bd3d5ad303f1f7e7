// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/ioutil"
	"github.com/doyaGu/nmo/pkg/nmofile"
)

var cmdRemap = &cobra.Command{
	Use:   "remap [input] [output]",
	Short: "Rewrite object references using a remap table",
	Args:  cobra.ExactArgs(2),
	Run:   runRemap,
}

var flagRemap struct {
	Table string
}

func init() {
	cmdMain.AddCommand(cmdRemap)
	cmdRemap.Flags().StringVar(&flagRemap.Table, "table", "", "Remap table (YAML map of old ID to new ID)")
	_ = cmdRemap.MarkFlagRequired("table")
}

func runRemap(_ *cobra.Command, args []string) {
	b, err := os.ReadFile(flagRemap.Table)
	checkf(err, "read %s", flagRemap.Table)

	var entries map[uint32]uint32
	err = yaml.Unmarshal(b, &entries)
	checkf(err, "parse %s", flagRemap.Table)

	table := chunk.NewRemapTable()
	for oldID, newID := range entries {
		table.Add(chunk.ID(oldID), chunk.ID(newID))
	}

	f, err := ioutil.OpenMapped(args[0])
	checkf(err, "open %s", args[0])
	defer func() { _ = f.Close() }()

	r, err := nmofile.Open(f)
	checkf(err, "read %s", args[0])

	a := arena.New(arena.DefaultBlockSize)
	defer a.Destroy()
	objects, err := r.Objects(a)
	check(err)

	for _, c := range objects {
		check(c.RemapObjectIDs(table))
	}

	out, err := os.Create(args[1])
	checkf(err, "create %s", args[1])
	defer func() { _ = out.Close() }()

	w, err := nmofile.Create(out)
	check(err)
	check(w.WriteHeader(r.Header))
	for _, c := range objects {
		check(w.WriteObject(c))
	}
	check(w.Close())

	logger.Info().Int("objects", len(objects)).Int("entries", table.Len()).Msg("remapped")
}
