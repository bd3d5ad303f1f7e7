// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/doyaGu/nmo/internal/logging"
)

var cmdMain = &cobra.Command{
	Use:   "nmo",
	Short: "Inspect and transform scene files",
	Run:   printUsageAndExit1,
}

var flagMain struct {
	LogLevel  string
	LogFormat string
}

var logger zerolog.Logger

func init() {
	cmdMain.PersistentFlags().StringVar(&flagMain.LogLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	cmdMain.PersistentFlags().StringVar(&flagMain.LogFormat, "log-format", "plain", "Log format (plain, json)")

	_ = viper.BindPFlag("log-level", cmdMain.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", cmdMain.PersistentFlags().Lookup("log-format"))
	viper.SetEnvPrefix("NMO")
	viper.AutomaticEnv()

	cmdMain.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(os.Stderr, viper.GetString("log-level"), viper.GetString("log-format"))
		return err
	}
}

func main() {
	_ = cmdMain.Execute()
}

func printUsageAndExit1(cmd *cobra.Command, args []string) {
	_ = cmd.Usage()
	os.Exit(1)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		fatalf("%v", err)
	}
}

func checkf(err error, format string, otherArgs ...interface{}) {
	if err != nil {
		fatalf(format+": %v", append(otherArgs, err)...)
	}
}
