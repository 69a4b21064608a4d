package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrEmptyInput is returned when the user submits an empty value.
var ErrEmptyInput = errors.New("empty input")

// Terminal seams, replaced in tests.
var (
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// ReadField prints "label: " to w and reads one line from reader. A last
// line without a newline is accepted at EOF.
func ReadField(reader *bufio.Reader, label string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrEmptyInput
	}
	return line, nil
}

// ReadSecret reads a value without echo when stdin is a terminal, and as a
// plain line from reader otherwise, so logins can be scripted through a
// pipe. The caller wipes the result.
func ReadSecret(reader *bufio.Reader, label string, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return nil, err
	}

	var secret []byte
	if fd := stdinFd(); isTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return nil, err
		}
		secret = pw
	} else {
		line, err := reader.ReadBytes('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return nil, err
		}
		secret = bytes.TrimRight(line, "\r\n")
	}

	if len(secret) == 0 {
		return nil, ErrEmptyInput
	}
	return secret, nil
}
