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

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name?\n> " {
		t.Fatalf("unexpected prompt %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEmptyEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer
	_, err := GetSimpleText(in, "Name?", &out)
	require.Error(t, err)
}

func TestGetSecret(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	var out bytes.Buffer
	got, err := GetSecret(&out, "Storage passphrase")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(got))
	assert.Equal(t, "Storage passphrase: \n", out.String())
}

func TestGetSecret_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetSecret(&out, "Storage passphrase")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		in   string
		want models.Destination
	}{
		{"+15550001", models.Phone("+15550001")},
		{"  +1 555 0001 ", models.Phone("+1 555 0001")},
		{"ann@example.com", models.Email("ann@example.com")},
		{" ann@example.com\t", models.Email("ann@example.com")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDestination(tt.in))
		})
	}
}

func TestExecute_AskPassphrase(t *testing.T) {
	orig := getSecret
	t.Cleanup(func() { getSecret = orig })

	var asked int
	getSecret = func(_ io.Writer, prompt string) ([]byte, error) {
		asked++
		assert.Equal(t, "Storage passphrase", prompt)
		return []byte("correct horse"), nil
	}

	h := newHarness(t)
	res := h.run(t, "", "--ask-passphrase", "status")
	require.Equal(t, ExitCodeSuccess, res.code, res.errOut)
	assert.Equal(t, 1, asked)
}

func TestExecute_AskPassphraseFails(t *testing.T) {
	orig := getSecret
	t.Cleanup(func() { getSecret = orig })
	getSecret = func(io.Writer, string) ([]byte, error) { return nil, errors.New("no tty") }

	h := newHarness(t)
	res := h.run(t, "", "--ask-passphrase", "status")
	assert.Equal(t, ExitCodeError, res.code)
	assert.Contains(t, res.errOut, "no tty")
}
