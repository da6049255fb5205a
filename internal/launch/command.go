// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"strings"

	"github.com/blocklaunch/blocklaunch/internal/runtime"
)

const redacted = "********"

// Command is a built game command line.
type Command struct {
	Java      string
	JVMArgs   []string
	MainClass string
	GameArgs  []string
	// Classpath lists the entries joined into -cp, client jar last.
	Classpath []string
	Dir       string

	secrets []string
}

// Args returns the arguments after the java executable.
func (c *Command) Args() []string {
	args := make([]string, 0, len(c.JVMArgs)+1+len(c.GameArgs))
	args = append(args, c.JVMArgs...)
	args = append(args, c.MainClass)
	return append(args, c.GameArgs...)
}

// Redacted renders the command line with tokens masked, for logs and
// dry runs.
func (c *Command) Redacted() string {
	parts := append([]string{c.Java}, c.Args()...)
	for i, p := range parts {
		for _, s := range c.secrets {
			p = strings.ReplaceAll(p, s, redacted)
		}
		parts[i] = p
	}
	return strings.Join(parts, " ")
}

// Process converts the command for a runtime.Runner.
func (c *Command) Process() runtime.Command {
	return runtime.Command{Path: c.Java, Args: c.Args(), Dir: c.Dir}
}
