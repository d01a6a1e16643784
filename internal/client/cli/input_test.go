package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func fakeTerminal(t *testing.T, tty bool, pw func(int) ([]byte, error)) {
	t.Helper()
	origTTY, origPW := stdinIsTerminal, readPassword
	stdinIsTerminal = func() bool { return tty }
	if pw != nil {
		readPassword = pw
	}
	t.Cleanup(func() { stdinIsTerminal, readPassword = origTTY, origPW })
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetPassword_Terminal(t *testing.T) {
	fakeTerminal(t, true, func(int) ([]byte, error) { return []byte("s3cret"), nil })

	var out bytes.Buffer
	pw, err := GetPassword(rdr("ignored\n"), "Password", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Equal(t, "Password: \n", out.String())
}

func TestGetPassword_TerminalError(t *testing.T) {
	fakeTerminal(t, true, func(int) ([]byte, error) { return nil, errors.New("boom") })

	var out bytes.Buffer
	_, err := GetPassword(rdr(""), "Password", &out)
	require.Error(t, err)
}

func TestGetPassword_Piped(t *testing.T) {
	fakeTerminal(t, false, func(int) ([]byte, error) {
		t.Fatal("terminal must not be read when stdin is piped")
		return nil, nil
	})

	var out bytes.Buffer
	pw, err := GetPassword(rdr("piped-pw\n"), "Password", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("piped-pw"), pw)
}
