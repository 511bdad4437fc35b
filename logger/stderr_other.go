//go:build !unix

package logger

import (
	"fmt"
	"io"
	"os"
)

// redirectStderr replaces os.Stderr with a pipe. Writers that hold the
// original file keep writing to it.
func redirectStderr() (io.ReadCloser, func() error, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create pipe: %w", err)
	}
	saved := os.Stderr
	os.Stderr = w

	undo := func() error {
		os.Stderr = saved
		return w.Close()
	}
	return r, undo, nil
}
