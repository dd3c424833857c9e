package prompter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads answers from a terminal or any reader.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// New creates a prompter over stdin and stdout.
func New() *Prompter {
	fd := int(os.Stdin.Fd())
	return &Prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		fd:  fd,
		tty: term.IsTerminal(fd),
	}
}

// NewWithIO creates a prompter that never touches the terminal.
func NewWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// String prompts user for a string input
func (p *Prompter) String(label string) (string, error) {
	fmt.Fprint(p.out, label)
	input, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// Default prompts with a prefilled value that an empty answer keeps.
func (p *Prompter) Default(label, current string) (string, error) {
	if current != "" {
		label = fmt.Sprintf("%s [%s]: ", label, current)
	} else {
		label += ": "
	}
	answer, err := p.String(label)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

// Password prompts user for a password (hidden input on a terminal)
func (p *Prompter) Password(label string) (string, error) {
	if !p.tty {
		return p.String(label)
	}

	fmt.Fprint(p.out, label)
	pw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Confirm prompts user for yes/no confirmation
func (p *Prompter) Confirm(label string) (bool, error) {
	answer, err := p.String(label + " (y/n) ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
