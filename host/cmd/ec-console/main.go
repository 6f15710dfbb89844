package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"ecbus/core"
	"ecbus/host/console"
	"ecbus/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate of the EC console")
	timeout = flag.Duration("timeout", 5*time.Second, "Time to wait for each reply")
	verbose = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	if *verbose {
		core.SetLogLevel(slog.LevelDebug)
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	c, err := console.Connect(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()
	c.Timeout = *timeout

	// One-shot mode: the remaining arguments are a single command
	if flag.NArg() > 0 {
		if !run(c, strings.Join(flag.Args(), " ")) {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Connected to EC on %s. Type 'help' for commands, 'quit' to exit.\n", *device)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(core.Prompt)
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			return
		}
		run(c, line)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// run sends one line and prints the reply. It reports whether the EC
// accepted the command.
func run(c *console.Client, line string) bool {
	out, err := c.Exec(line)
	var re *console.RemoteError
	switch {
	case err == nil:
		fmt.Print(out)
		return true
	case errors.As(err, &re):
		fmt.Fprintf(os.Stderr, "Error: %s\n", re.Msg)
	default:
		fmt.Print(out)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return false
}
