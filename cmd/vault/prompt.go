package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errAborted = errors.New("input closed")

// prompter reads answers line by line.
// TODO: read passwords without echo once a terminal package is adopted.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// line prints label and returns the answer without its line ending.
// It returns errAborted at end of input with nothing typed.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && s != "" {
			return strings.TrimRight(s, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errAborted
		}
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// confirm asks a yes/no question. Anything but y/yes, including end of
// input, is a no.
func (p *prompter) confirm(question string) bool {
	answer, err := p.line(question + " [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// lines delivers each input line on the returned channel until input ends.
func (p *prompter) lines() <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for {
			s, err := p.in.ReadString('\n')
			if s != "" || err == nil {
				ch <- strings.TrimRight(s, "\r\n")
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}
