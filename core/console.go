package core

import (
	"bufio"
	"io"
)

// Prompt is written before each console line is read
const Prompt = "> "

// Console reads command lines from a UART-like stream and runs them
// against a registry. Output and errors go back to the same stream.
type Console struct {
	Registry *CommandRegistry
	Prompt   string
}

// NewConsole creates a console for the registry
func NewConsole(r *CommandRegistry) *Console {
	return &Console{Registry: r, Prompt: Prompt}
}

// Run processes lines from in until it is exhausted
func (c *Console) Run(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	io.WriteString(out, c.Prompt)
	for scanner.Scan() {
		c.Line(scanner.Text(), out)
		io.WriteString(out, c.Prompt)
	}
	return scanner.Err()
}

// Line executes a single command line, reporting any error on out
func (c *Console) Line(line string, out io.Writer) {
	if err := c.Registry.Execute(line, out); err != nil {
		LogDebug(ComponentConsole, "command failed", "line", line, "err", err)
		io.WriteString(out, "error: "+err.Error()+"\n")
	}
}
