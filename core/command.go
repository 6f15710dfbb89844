package core

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/shlex"
)

// CommandHandler runs a console command. args excludes the command name.
type CommandHandler func(args []string, out io.Writer) error

// Command represents a console command
type Command struct {
	Name    string
	Usage   string // Argument synopsis for help (e.g., "<bus> <addr> <offset>")
	Help    string
	Handler CommandHandler
}

// ErrUnknownCommand is returned by Execute for unregistered command names
var ErrUnknownCommand = errors.New("unknown command")

// ErrUsage is returned by handlers when their arguments don't parse
var ErrUsage = errors.New("wrong number or type of arguments")

// CommandRegistry holds all registered console commands
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*Command),
	}
}

// Register adds a command to the registry. A later registration under the
// same name replaces the earlier one.
func (r *CommandRegistry) Register(cmd *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name] = cmd
}

// GetCommand retrieves a command by name
func (r *CommandRegistry) GetCommand(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Names returns the registered command names in sorted order
func (r *CommandRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute splits a console line into words and dispatches it.
// Blank lines are ignored.
func (r *CommandRegistry) Execute(line string, out io.Writer) error {
	words, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}

	cmd, ok := r.GetCommand(words[0])
	if !ok || cmd.Handler == nil {
		return fmt.Errorf("%s: %w", words[0], ErrUnknownCommand)
	}
	return cmd.Handler(words[1:], out)
}

// WriteHelp lists every command with its usage and help text
func (r *CommandRegistry) WriteHelp(out io.Writer) {
	for _, name := range r.Names() {
		cmd, _ := r.GetCommand(name)
		line := "  " + cmd.Name
		if cmd.Usage != "" {
			line += " " + cmd.Usage
		}
		if cmd.Help != "" {
			line += " - " + cmd.Help
		}
		io.WriteString(out, line+"\n")
	}
}
