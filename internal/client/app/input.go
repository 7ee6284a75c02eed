package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is swapped out in tests to keep them off the real terminal.
var readPassword = term.ReadPassword

// promptLine prints "label: " to w and reads one line, trimmed. A partial
// line terminated by EOF still counts as input.
func promptLine(reader *bufio.Reader, label string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}

	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a line from the terminal without echo. The caller
// should zero the returned bytes once the credential has been used.
func promptSecret(label string, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return nil, err
	}

	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	return secret, err
}
