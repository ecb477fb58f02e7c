package secret

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrEmpty is returned when the resolved secret is blank.
var ErrEmpty = errors.New("secret: value is empty")

// Source lazily resolves a secret and caches it after the first successful
// retrieval.
type Source struct {
	envVar   string
	fallback string
	label    string
	prompt   func(label string) (string, error)

	once  sync.Once
	value string
	err   error
}

// NewSource constructs a source that checks envVar, then fallback, then
// prompts on the terminal for label.
func NewSource(envVar, fallback, label string) *Source {
	return &Source{
		envVar:   strings.TrimSpace(envVar),
		fallback: strings.TrimSpace(fallback),
		label:    label,
		prompt:   promptTerminal,
	}
}

// Get returns the cached secret or resolves it on the first call.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		if s.envVar != "" {
			if value, ok := os.LookupEnv(s.envVar); ok {
				if strings.TrimSpace(value) == "" {
					s.err = fmt.Errorf("%w: %s is set but empty", ErrEmpty, s.envVar)
					return
				}
				s.value = value
				return
			}
		}
		if s.fallback != "" {
			s.value = s.fallback
			return
		}
		value, err := s.prompt(s.label)
		if err != nil {
			s.err = err
			return
		}
		if strings.TrimSpace(value) == "" {
			s.err = fmt.Errorf("%w: %s", ErrEmpty, s.label)
			return
		}
		s.value = value
	})
	return s.value, s.err
}

func promptTerminal(label string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("secret: %s required and no terminal available", label)
	}
	return readPassword(os.Stderr, int(os.Stdin.Fd()), label)
}

func readPassword(out io.Writer, fd int, label string) (string, error) {
	fmt.Fprintf(out, "Enter %s: ", label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", label, err)
	}
	return string(raw), nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
