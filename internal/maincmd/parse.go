package maincmd

import (
	"context"
	"fmt"
	"io"

	"github.com/mna/mainer"

	"github.com/ifj21-compiler/ifjc/lang/parser"
	"github.com/ifj21-compiler/ifjc/lang/token"
)

// Parse runs the full parser/emitter over stdin like Compile does, but
// always prints whatever came out of it (the IFJcode21 text on success, or
// the recorded diagnostic on failure) and exits 0 either way — a debug aid
// for developing the parser independently of the fixed exit-code contract
// "compile" is held to.
func (c *Cmd) Parse(_ context.Context, stdio mainer.Stdio, _ []string) error {
	src, err := io.ReadAll(stdio.Stdin)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: reading stdin: %s\n", binName, err)
		return err
	}

	fset := token.NewFileSet()
	p := parser.New(fset, "<stdin>", src)
	out, sink := p.Compile()

	if sink.Failed() {
		fmt.Fprintf(stdio.Stderr, "%s\n", sink.First())
		return nil
	}
	fmt.Fprint(stdio.Stdout, out)
	return nil
}
