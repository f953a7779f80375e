// Command ahkls parses AutoHotkey v2 scripts: it reports diagnostics,
// prints document outlines, and dumps token streams.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	flagVerbose bool
	flagNoColor bool
)

func main() {
	root := &cobra.Command{
		Use:           "ahkls",
		Short:         "AutoHotkey v2 script parser and analyzer",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false,
		"disable colored output")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newOutlineCmd())
	root.AddCommand(newTokensCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
}
