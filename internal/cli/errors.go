package cli

import (
	"errors"

	"github.com/maruel/bookshelf/internal/books"
)

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var be *books.Error
	if errors.As(err, &be) {
		return be.ExitCode()
	}
	return 1
}
