package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahkls/ahkls/parser"
	"github.com/ahkls/ahkls/token"
)

func newTokensCmd() *cobra.Command {
	var showPairs bool
	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Dump the token table of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			// Delimiter pairing is parser work, so dump the table after a
			// full parse rather than the raw scan.
			res, _ := parser.Parse(context.Background(), string(data))
			for _, offset := range res.Table.Offsets() {
				tok := res.Table.Get(offset)
				if tok.Kind == token.EOF {
					continue
				}
				line := ""
				switch tok.TopOfLine {
				case token.LineStart:
					line = " line-start"
				case token.ContinuationLine:
					line = " continuation"
				}
				pairs := ""
				if showPairs && tok.ClosesAt >= 0 {
					pairs = fmt.Sprintf(" closes@%d", tok.ClosesAt)
				}
				fmt.Printf("%6d  %-14s %q%s%s\n",
					tok.Offset, tok.Kind, tok.Content, line, pairs)
			}
			for _, d := range res.Diags.Items() {
				fmt.Printf("# %s\n", d.Error())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPairs, "pairs", false,
		"show delimiter pairing offsets")
	return cmd
}
