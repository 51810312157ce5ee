package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/example/classpick/internal/registration"
)

const classPrompt = "Enter classes ids separated by spaces (ex. 7878 9651 4456)"

// pickTargets uses args when given, otherwise asks on in until a non-empty
// line arrives.
func pickTargets(args []string, in io.Reader, out io.Writer) ([]registration.Target, error) {
	if len(args) > 0 {
		return registration.ParseTargets(args...)
	}

	r := bufio.NewReader(in)
	for {
		fmt.Fprintln(out, classPrompt)
		line, err := r.ReadString('\n')
		if targets, perr := registration.ParseTargets(line); perr == nil {
			return targets, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, registration.ErrNoTargets
			}
			return nil, fmt.Errorf("read class ids: %w", err)
		}
	}
}
