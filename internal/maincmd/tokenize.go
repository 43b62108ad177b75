package maincmd

import (
	"context"
	"fmt"
	"io"

	"github.com/mna/mainer"

	"github.com/ifj21-compiler/ifjc/lang/scanner"
	"github.com/ifj21-compiler/ifjc/lang/token"
)

// Tokenize prints the token stream the scanner produces for stdin, one
// token per line — a debug aid for inspecting lexing independently of the
// rest of the pipeline.
func (c *Cmd) Tokenize(_ context.Context, stdio mainer.Stdio, _ []string) error {
	src, err := io.ReadAll(stdio.Stdin)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: reading stdin: %s\n", binName, err)
		return err
	}

	fset := token.NewFileSet()
	toks, vals, err := scanner.ScanAll(fset, "<stdin>", src)
	for i, tok := range toks {
		v := vals[i]
		fmt.Fprintf(stdio.Stdout, "%s: %s", fset.Position(v.Pos), tok)
		if lit := tok.Literal(v); lit != "" {
			fmt.Fprintf(stdio.Stdout, " %s", lit)
		}
		fmt.Fprintln(stdio.Stdout)
	}
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}
	return nil
}
