package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/document"
	"github.com/ahkls/ahkls/parser"
)

func newCheckCmd() *cobra.Command {
	var (
		asLibrary bool
		skipLines bool
		libDirs   []string
	)
	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Parse scripts and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupColor()
			ws := document.NewWorkspace(
				document.WithLogger(newLogger()),
				document.WithLibDirs(libDirs...),
			)

			opts := []document.Option{}
			if asLibrary {
				opts = append(opts, document.WithDialect(parser.DialectLibrary))
			}
			if skipLines {
				opts = append(opts, document.WithRecoveryPolicy(parser.PolicySkipLine))
			}

			problems := 0
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return err
				}
				doc, err := ws.Load(context.Background(), path, opts...)
				if err != nil {
					return err
				}
				problems += printDiagnostics(doc)
			}
			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asLibrary, "library", false,
		"treat files as library documents")
	cmd.Flags().BoolVar(&skipLines, "skip-lines", false,
		"skip legacy-syntax lines instead of stopping")
	cmd.Flags().StringSliceVar(&libDirs, "lib", nil,
		"directories searched for <name> includes")
	return cmd
}

func setupColor() {
	if flagNoColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

var (
	errorLabel = color.New(color.FgRed, color.Bold)
	warnLabel  = color.New(color.FgYellow, color.Bold)
	infoLabel  = color.New(color.FgCyan)
	fileLabel  = color.New(color.Bold)
)

// printDiagnostics writes one line per diagnostic and returns the number of
// error-severity problems.
func printDiagnostics(doc *document.Document) int {
	items := doc.Results().Diags.Items()
	errors := 0
	for _, item := range items {
		pos := doc.PositionAt(item.Range.Start)
		label := infoLabel
		switch item.Severity {
		case diag.Error:
			label = errorLabel
			errors++
		case diag.Warning:
			label = warnLabel
		}
		fmt.Printf("%s:%d:%d: %s: %s [%s]\n",
			fileLabel.Sprint(shortPath(doc)),
			pos.Line+1, pos.Character+1,
			label.Sprint(item.Severity.String()),
			item.Message, item.Code)
	}
	if doc.Results().Stopped {
		fmt.Printf("%s: %s\n", fileLabel.Sprint(shortPath(doc)),
			warnLabel.Sprint("parse stopped: document uses a different language version"))
	}
	return errors
}

func shortPath(doc *document.Document) string {
	if rel, err := filepath.Rel(mustGetwd(), doc.Path); err == nil && len(rel) < len(doc.Path) {
		return rel
	}
	return doc.Path
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
