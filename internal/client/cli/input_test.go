package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func fakeTerminal(t *testing.T, tty bool, read func(int) ([]byte, error)) {
	t.Helper()
	origFd, origTTY, origRead := stdinFd, isTerminal, readPassword
	stdinFd = func() int { return 7 }
	isTerminal = func(fd int) bool { return tty && fd == 7 }
	if read != nil {
		readPassword = read
	}
	t.Cleanup(func() { stdinFd, isTerminal, readPassword = origFd, origTTY, origRead })
}

func TestReadField(t *testing.T) {
	var out bytes.Buffer
	got, err := ReadField(lines("  alice \n"), "Login", &out)
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Equal(t, "Login: ", out.String())
}

func TestReadField_LastLineWithoutNewline(t *testing.T) {
	got, err := ReadField(lines("alice"), "Login", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
}

func TestReadField_Errors(t *testing.T) {
	_, err := ReadField(lines(""), "Login", io.Discard)
	require.ErrorIs(t, err, io.EOF)

	_, err = ReadField(lines("   \n"), "Login", io.Discard)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestReadSecret_Terminal(t *testing.T) {
	fakeTerminal(t, true, func(fd int) ([]byte, error) {
		assert.Equal(t, 7, fd)
		return []byte("s3cret"), nil
	})

	var out bytes.Buffer
	in := lines("must not be read\n")
	pw, err := ReadSecret(in, "Password", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Equal(t, "Password: \n", out.String())

	rest, err := in.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "must not be read\n", rest)
}

func TestReadSecret_TerminalError(t *testing.T) {
	fakeTerminal(t, true, func(int) ([]byte, error) { return nil, errors.New("boom") })

	_, err := ReadSecret(lines(""), "Password", io.Discard)
	require.EqualError(t, err, "boom")
}

func TestReadSecret_Piped(t *testing.T) {
	fakeTerminal(t, false, func(int) ([]byte, error) {
		t.Fatal("terminal read on a pipe")
		return nil, nil
	})

	in := lines("p a ss\r\nnext\n")
	pw, err := ReadSecret(in, "Password", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []byte("p a ss"), pw)

	rest, err := ReadField(in, "Next", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "next", rest)
}

func TestReadSecret_Empty(t *testing.T) {
	fakeTerminal(t, false, nil)

	_, err := ReadSecret(lines("\n"), "Password", io.Discard)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReadSecret(lines(""), "Password", io.Discard)
	require.ErrorIs(t, err, io.EOF)
}
