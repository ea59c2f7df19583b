// Copyright (c) Microsoft. All rights reserved.

// Package console reads user input for the interactive samples.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Console reads lines from an input and writes prompts to an output.
type Console struct {
	in          *bufio.Scanner
	out         io.Writer
	interactive bool
	autoApprove bool
}

// Option configures a Console.
type Option func(*Console)

// WithAutoApprove makes Confirm answer yes without reading input.
func WithAutoApprove(v bool) Option {
	return func(c *Console) { c.autoApprove = v }
}

// WithInteractive overrides terminal detection.
func WithInteractive(v bool) Option {
	return func(c *Console) { c.interactive = v }
}

// New returns a Console on in and out. Input is treated as interactive when
// it is a terminal.
func New(in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{in: bufio.NewScanner(in), out: out}
	if f, ok := in.(*os.File); ok {
		c.interactive = term.IsTerminal(int(f.Fd()))
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stdio returns a Console on the process's standard input and output.
func Stdio(opts ...Option) *Console {
	return New(os.Stdin, os.Stdout, opts...)
}

// Interactive reports whether input comes from a terminal.
func (c *Console) Interactive() bool { return c.interactive }

// ReadLine prints prompt and returns the next trimmed line. ok is false at
// end of input.
func (c *Console) ReadLine(prompt string) (line string, ok bool) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// Confirm asks a yes/no question. Only "y" and "yes" count as yes. Without
// a terminal and without auto-approve the answer is no.
func (c *Console) Confirm(question string) bool {
	if c.autoApprove {
		fmt.Fprintf(c.out, "%s (y/n): y [auto-approved]\n", question)
		return true
	}
	if !c.interactive {
		fmt.Fprintf(c.out, "%s (y/n): n [no terminal]\n", question)
		return false
	}
	line, ok := c.ReadLine(question + " (y/n): ")
	if !ok {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Printf writes to the console output.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
