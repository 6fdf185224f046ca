// Package clipboard writes extracted text to the clipboard of the machine
// running the uploader.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

var ErrUnavailable = errors.New("clipboard unavailable")

// Clipboard accepts full-text writes
type Clipboard interface {
	WriteText(text string) error
}

// System writes to the host clipboard
type System struct{}

func (System) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Disabled rejects every write
type Disabled struct{}

func (Disabled) WriteText(string) error {
	return ErrUnavailable
}

// New returns System when enabled, Disabled otherwise
func New(enabled bool) Clipboard {
	if enabled {
		return System{}
	}
	return Disabled{}
}
