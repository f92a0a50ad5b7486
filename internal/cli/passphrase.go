// Package cli holds small terminal-interaction helpers used directly by
// cmd/fsarc, kept separate from the flag/dispatch logic in main.go the same
// way the teacher splits interactive helpers out of its command bodies.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ReadPassphrase prompts on w and reads a passphrase from fd without local
// echo when fd is a terminal, falling back to a plain line read otherwise
// (piped stdin, redirected input in scripts and tests).
func ReadPassphrase(fd int, r io.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)

	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadPassphraseFromFile reads a single passphrase line from path, trimming
// its trailing newline, for non-interactive use via --passphrase-file.
func ReadPassphraseFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading passphrase file %s: %w", path, err)
	}
	lines := strings.SplitN(string(data), "\n", 2)
	return strings.TrimRight(lines[0], "\r"), nil
}
