// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/ioutil"
	"github.com/doyaGu/nmo/pkg/migrate"
	"github.com/doyaGu/nmo/pkg/nmofile"
	"github.com/doyaGu/nmo/pkg/schema"
)

var cmdMigrate = &cobra.Command{
	Use:   "migrate [input] [output]",
	Short: "Rewrite a scene file's objects at a different schema version",
	Args:  cobra.ExactArgs(2),
	Run:   runMigrate,
}

var flagMigrate struct {
	Schema string
	To     uint8
}

func init() {
	cmdMain.AddCommand(cmdMigrate)
	cmdMigrate.Flags().StringVar(&flagMigrate.Schema, "schema", "", "Schema document (YAML)")
	cmdMigrate.Flags().Uint8Var(&flagMigrate.To, "to", 0, "Target schema version")
	_ = cmdMigrate.MarkFlagRequired("schema")
	_ = cmdMigrate.MarkFlagRequired("to")
}

func runMigrate(_ *cobra.Command, args []string) {
	b, err := os.ReadFile(flagMigrate.Schema)
	checkf(err, "read %s", flagMigrate.Schema)
	reg, err := schema.FromYAML(b)
	checkf(err, "load %s", flagMigrate.Schema)

	f, err := ioutil.OpenMapped(args[0])
	checkf(err, "open %s", args[0])
	defer func() { _ = f.Close() }()

	r, err := nmofile.Open(f)
	checkf(err, "read %s", args[0])

	a := arena.New(arena.DefaultBlockSize)
	defer a.Destroy()
	objects, err := r.Objects(a)
	check(err)

	m := migrate.New(reg)
	m.SetLogger(logger)

	// Each goroutine migrates into its own arena. The arenas stay alive
	// until the output file is written.
	migrated := make([]*chunk.Chunk, len(objects))
	arenas := make([]*arena.Arena, len(objects))
	errg := new(errgroup.Group)
	errg.SetLimit(runtime.NumCPU())
	for i, c := range objects {
		i, c := i, c
		errg.Go(func() error {
			arenas[i] = arena.New(arena.DefaultBlockSize)
			var err error
			migrated[i], err = m.Migrate(c, arenas[i], flagMigrate.To)
			return err
		})
	}
	err = errg.Wait()
	for _, a := range arenas {
		if a != nil {
			defer a.Destroy()
		}
	}
	check(err)

	out, err := os.Create(args[1])
	checkf(err, "create %s", args[1])
	defer func() { _ = out.Close() }()

	w, err := nmofile.Create(out)
	check(err)
	check(w.WriteHeader(&nmofile.Header{
		FormatVersion: nmofile.Version,
		DataVersion:   flagMigrate.To,
		Tool:          r.Header.Tool,
		ObjectCount:   uint32(len(migrated)),
	}))
	for _, c := range migrated {
		check(w.WriteObject(c))
	}
	check(w.Close())

	logger.Info().Int("objects", len(migrated)).Uint8("to", flagMigrate.To).Msg("migrated")
}
