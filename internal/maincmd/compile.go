package maincmd

import (
	"context"
	"fmt"
	"io"

	"github.com/mna/mainer"

	"github.com/ifj21-compiler/ifjc/lang/parser"
	"github.com/ifj21-compiler/ifjc/lang/token"
)

// Compile reads an IFJ21 program from stdin, compiles it, and writes the
// resulting IFJcode21 to stdout. On any compile error, it writes exactly one
// diagnostic line to stderr and returns a *codeError carrying the matching
// fixed exit code.
func (c *Cmd) Compile(_ context.Context, stdio mainer.Stdio, _ []string) error {
	src, err := io.ReadAll(stdio.Stdin)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: reading stdin: %s\n", binName, err)
		return &codeError{code: 99, err: err}
	}

	fset := token.NewFileSet()
	p := parser.New(fset, "<stdin>", src)
	out, sink := p.Compile()

	if sink.Failed() {
		diag := sink.First()
		fmt.Fprintf(stdio.Stderr, "%s\n", diag)
		return &codeError{code: diag.Kind.ExitCode(), err: diag}
	}

	fmt.Fprint(stdio.Stdout, out)
	return nil
}
