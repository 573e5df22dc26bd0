// Package clipboard copies rendered trees and merged documents to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable reports a platform without a usable clipboard utility.
var ErrClipboardUnavailable = errors.New("system clipboard is not available")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// CopierFunc adapts a function to Copier.
type CopierFunc func(text string) error

// Copy calls the wrapped function.
func (copier CopierFunc) Copy(text string) error {
	return copier(text)
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a clipboard service.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

var (
	_ Copier = (*Service)(nil)
	_ Copier = CopierFunc(nil)
)
