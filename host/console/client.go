// Package console drives the EC text console from the host side: it sends
// one command line at a time and collects the reply up to the next prompt.
package console

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"time"

	"ecbus/core"
	"ecbus/host/serial"
)

// Client errors
var (
	ErrTimeout = errors.New("console: no prompt before timeout")
	ErrClosed  = errors.New("console: connection closed")
)

// RemoteError is a failure reported by the EC for a command
type RemoteError struct {
	Line string // command line sent
	Msg  string // text after "error: "
}

func (e *RemoteError) Error() string {
	return e.Line + ": " + e.Msg
}

// Client is a connection to the EC console
type Client struct {
	port serial.Port

	// Prompt marks the end of a reply
	Prompt string
	// Timeout bounds each command
	Timeout time.Duration

	chunks  chan []byte
	pending bytes.Buffer

	writeMutex sync.Mutex
	stopChan   chan struct{}
	doneChan   chan struct{}
}

// Connect opens the serial device and synchronises with the prompt
func Connect(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	c := New(port)
	if err := c.Sync(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an open port and starts the background reader
func New(port serial.Port) *Client {
	c := &Client{
		port:     port,
		Prompt:   core.Prompt,
		Timeout:  2 * time.Second,
		chunks:   make(chan []byte, 16),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	defer close(c.doneChan)
	defer close(c.chunks)

	buf := make([]byte, 256)
	for {
		n, err := c.port.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case c.chunks <- chunk:
			case <-c.stopChan:
				return
			}
		}
		if err != nil {
			core.LogDebug(core.ComponentConsole, "reader stopped", "err", err)
			return
		}
	}
}

// Close stops the reader and closes the port
func (c *Client) Close() error {
	select {
	case <-c.stopChan:
		return nil
	default:
		close(c.stopChan)
	}
	err := c.port.Close()
	<-c.doneChan
	return err
}

// Sync discards any pending output, such as a banner, by sending an empty
// line and reading until the console has been quiet for a moment after a
// prompt.
func (c *Client) Sync() error {
	c.port.Flush()
	c.pending.Reset()
	if err := c.write("\n"); err != nil {
		return err
	}
	if _, err := c.readPrompt(); err != nil {
		return err
	}

	// Swallow the prompts of anything sent before we connected
	quiet := time.NewTimer(50 * time.Millisecond)
	defer quiet.Stop()
	for {
		select {
		case chunk, ok := <-c.chunks:
			if !ok {
				return ErrClosed
			}
			c.pending.Write(chunk)
			quiet.Reset(50 * time.Millisecond)
		case <-quiet.C:
			c.pending.Reset()
			return nil
		}
	}
}

// Exec runs one command line and returns its output without the prompt.
// An "error: " reply is returned as a *RemoteError.
func (c *Client) Exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	if err := c.write(line + "\n"); err != nil {
		return "", err
	}
	out, err := c.readPrompt()
	if err != nil {
		return out, err
	}
	if msg, ok := strings.CutPrefix(out, "error: "); ok {
		return out, &RemoteError{Line: line, Msg: strings.TrimSpace(msg)}
	}
	return out, nil
}

func (c *Client) write(s string) error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	_, err := c.port.Write([]byte(s))
	return err
}

// readPrompt collects output until it ends with the prompt
func (c *Client) readPrompt() (string, error) {
	timer := time.NewTimer(c.Timeout)
	defer timer.Stop()

	for !bytes.HasSuffix(c.pending.Bytes(), []byte(c.Prompt)) {
		select {
		case chunk, ok := <-c.chunks:
			if !ok {
				return c.pending.String(), ErrClosed
			}
			c.pending.Write(chunk)
		case <-timer.C:
			return c.pending.String(), ErrTimeout
		}
	}

	out := c.pending.String()
	c.pending.Reset()
	return strings.TrimSuffix(out, c.Prompt), nil
}
