package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/spf13/cobra"

	"github.com/ahkls/ahkls/document"
)

func newOutlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "Print the symbol outline of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupColor()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc := document.New(context.Background(),
				protocol.DocumentURI("file://"+args[0]), string(data))
			for _, sym := range doc.DocumentSymbols() {
				printSymbol(sym, 0)
			}
			return nil
		},
	}
	return cmd
}

var kindColor = map[protocol.SymbolKind]*color.Color{
	protocol.Function:  color.New(color.FgBlue),
	protocol.Method:    color.New(color.FgBlue),
	protocol.Class:     color.New(color.FgGreen, color.Bold),
	protocol.Property:  color.New(color.FgCyan),
	protocol.Event:     color.New(color.FgMagenta),
	protocol.Namespace: color.New(color.FgYellow),
}

func printSymbol(sym protocol.DocumentSymbol, depth int) {
	c, ok := kindColor[sym.Kind]
	if !ok {
		c = color.New()
	}
	detail := ""
	if sym.Detail != "" {
		detail = " " + color.New(color.Faint).Sprint(sym.Detail)
	}
	fmt.Printf("%s%s%s  %d:%d\n",
		strings.Repeat("  ", depth),
		c.Sprint(sym.Name), detail,
		sym.SelectionRange.Start.Line+1,
		sym.SelectionRange.Start.Character+1)
	for _, kid := range sym.Children {
		printSymbol(kid, depth+1)
	}
}
