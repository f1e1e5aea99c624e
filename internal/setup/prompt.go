package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptPassword asks twice and returns the confirmed password. A terminal
// gets echo suppressed; piped input is read line by line.
func promptPassword(label string, in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		read := func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return string(b), err
		}
		return confirmLoop(label, out, read)
	}

	r := bufio.NewReader(in)
	read := func() (string, error) {
		s, err := r.ReadString('\n')
		if errors.Is(err, io.EOF) && s != "" {
			err = nil
		}
		return s, err
	}
	return confirmLoop(label, out, read)
}

func confirmLoop(label string, out io.Writer, read func() (string, error)) (string, error) {
	for {
		fmt.Fprintf(out, "%s: ", label)
		p1, err := read()
		if err != nil {
			return "", err
		}
		fmt.Fprint(out, "Confirm password: ")
		p2, err := read()
		if err != nil {
			return "", err
		}
		p1 = strings.TrimSpace(p1)
		p2 = strings.TrimSpace(p2)
		if p1 == "" {
			fmt.Fprintln(out, "password cannot be empty")
			continue
		}
		if p1 != p2 {
			fmt.Fprintln(out, "passwords do not match")
			continue
		}
		return p1, nil
	}
}
