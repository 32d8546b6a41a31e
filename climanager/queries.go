package climanager

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
)

var (
	// ErrQuit is returned when the user enters "quit" or "q".
	ErrQuit = errors.New("User quit")
	// ErrInputEnded is returned when there is no more input to read.
	ErrInputEnded = errors.New("Input ended")
)

// Prompter asks questions on a Writer and reads the answers, one per line, from a Reader. Each
// query repeats until the answer is valid.
type Prompter struct {
	sc *bufio.Scanner
	w  io.Writer
}

// NewPrompter returns a Prompter reading from r and writing to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{bufio.NewScanner(r), w}
}

// Writer returns the Writer that the Prompter writes to.
func (p *Prompter) Writer() io.Writer {
	return p.w
}

// Printf writes to the Prompter's Writer.
func (p *Prompter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

// Println writes to the Prompter's Writer.
func (p *Prompter) Println(args ...interface{}) {
	fmt.Fprintln(p.w, args...)
}

// line prints the prompt and returns the next line of input
func (p *Prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", errors.Wrap(err, "Failed to read input")
		}
		return "", ErrInputEnded
	}

	text := strings.TrimSpace(p.sc.Text())
	if text == "quit" || text == "q" {
		return "", ErrQuit
	}

	return text, nil
}

// query asks the prompt until parse accepts the answer. Validation errors are shown to the
// user; any other error is returned.
func (p *Prompter) query(prompt string, parse func(string) error) error {
	for {
		raw, err := p.line(prompt)
		if err != nil {
			return err
		}

		err = parse(raw)
		if verr, ok := err.(*ValidationError); ok {
			fmt.Fprintln(p.w, verr.Message)
			continue
		}

		return err
	}
}

// Int asks for an integer within the Constraint.
func (p *Prompter) Int(prompt string, c Constraint) (v int, err error) {
	err = p.query(prompt, func(raw string) (e error) {
		v, e = ParseInt(raw, c)
		return
	})
	return
}

// Float asks for a number within the Constraint.
func (p *Prompter) Float(prompt string, c Constraint) (v float64, err error) {
	err = p.query(prompt, func(raw string) (e error) {
		v, e = ParseFloat(raw, c)
		return
	})
	return
}

// Pair asks for two comma-separated integers within the Constraint.
func (p *Prompter) Pair(prompt string, c Constraint) (v mfgnet.Pair, err error) {
	err = p.query(prompt, func(raw string) (e error) {
		v, e = ParsePair(raw, c)
		return
	})
	return
}

// IntList asks for comma-separated integers within the Constraint; exactly n of them if n > 0.
func (p *Prompter) IntList(prompt string, n int, c Constraint) (v []int, err error) {
	err = p.query(prompt, func(raw string) (e error) {
		v, e = ParseIntList(raw, n, c)
		return
	})
	return
}

// YesNo asks a yes or no question.
func (p *Prompter) YesNo(prompt string) (v bool, err error) {
	err = p.query(prompt, func(raw string) (e error) {
		v, e = ParseYesNo(raw)
		return
	})
	return
}

// Flag asks for 1 or 0.
func (p *Prompter) Flag(prompt string, c Constraint) (v bool, err error) {
	err = p.query(prompt, func(raw string) (e error) {
		v, e = ParseFlag(raw, c)
		return
	})
	return
}

// Choice lists the options and asks for one of them by number. It returns the index into
// options, starting at 0. def is the 1-based default option, or 0 for none.
func (p *Prompter) Choice(prompt string, options []string, def int) (int, error) {
	list := make([]string, len(options))
	for i, o := range options {
		list[i] = fmt.Sprintf("%d: %s", i+1, o)
	}

	c := Constraint{}
	if def > 0 {
		c.Default = fmt.Sprint(def)
	}

	full := fmt.Sprintf("%s [%s]: ", prompt, strings.Join(list, ", "))

	var v int
	err := p.query(full, func(raw string) (e error) {
		v, e = ParseChoice(raw, len(options), c)
		return
	})

	return v - 1, err
}
