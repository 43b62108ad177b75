// Package maincmd implements the ifjc command line: argument parsing via
// github.com/mna/mainer and dispatch to the compile/tokenize/parse
// subcommands, discovered by reflection off a single mainer.Cmd.
package maincmd

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "ifjc"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<command>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<command>]
       %[1]s -h|--help
       %[1]s -v|--version

Single-pass compiler for the IFJ21 language, lowering to IFJcode21. Reads
source from stdin and writes IFJcode21 to stdout; on error, writes one
diagnostic line to stderr and exits with the matching error code.

The <command> can be one of (default: compile):
       compile                   Compile stdin to IFJcode21 on stdout
                                 (default if no command is given).
       tokenize                  Print the token stream read from stdin.
       parse                     Run the parser/emitter over stdin and
                                 print the resulting IFJcode21, or the
                                 first recorded diagnostic; exits 0
                                 either way.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd is the ifjc command, parsed by mainer.Parser from struct-tag flags
// and driven through a Validate/Main pair.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)      { c.args = args }
func (c *Cmd) SetFlags(_ map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	cmdName := "compile"
	if len(c.args) > 0 {
		cmdName = c.args[0]
	}

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args); err != nil {
		if ce, ok := err.(*codeError); ok {
			return mainer.ExitCode(ce.code)
		}
		return mainer.Failure
	}
	return mainer.Success
}

// codeError carries one of the fixed ifjerr exit codes across the
// mainer.ExitCode boundary, which otherwise only distinguishes
// success/failure/invalid-args.
type codeError struct {
	code int
	err  error
}

func (e *codeError) Error() string { return e.err.Error() }

// buildCmds discovers every (ctx, stdio, args) -> error method on v by
// reflection, so adding a new subcommand never requires touching
// Validate/Main's dispatch logic.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
