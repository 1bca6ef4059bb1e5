package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var stdin = bufio.NewReader(os.Stdin)

// readLine prompts on stderr and returns the trimmed answer.
func readLine(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readLineDefault is readLine that falls back to def on an empty answer.
func readLineDefault(label, def string) (string, error) {
	if def != "" {
		label = fmt.Sprintf("%s[%s] ", label, def)
	}
	v, err := readLine(label)
	if err != nil || v != "" {
		return v, err
	}
	return def, nil
}

// readSecret reads a password without echo. When stdin is not a terminal the
// line is read as is, so secrets can be piped in.
func readSecret(label string) ([]byte, error) {
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) {
		v, err := readLine(label)
		return []byte(v), err
	}
	fmt.Fprint(os.Stderr, label)
	secret, err := term.ReadPassword(int(fd))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return secret, nil
}
