package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"profscreen/internal/language"
)

// prompter asks questions on an interactive terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints question and returns the trimmed answer. End of input yields
// an empty answer.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(p.out)
	}
	return strings.TrimSpace(line), nil
}

// askLanguage shows the numbered language menu. An unknown choice falls back
// to the default language with a notice.
func (p *prompter) askLanguage() (string, error) {
	fmt.Fprintln(p.out, "Select the language spoken in the media:")
	for _, opt := range language.Menu() {
		fmt.Fprintf(p.out, "  %s. %s\n", opt.Choice, opt.Display)
	}
	answer, err := p.ask("Enter choice: ")
	if err != nil {
		return "", err
	}
	code, ok := language.Resolve(answer)
	if !ok {
		fmt.Fprintf(p.out, "Invalid choice, defaulting to %s.\n", language.DisplayName(code))
	}
	return code, nil
}
