//go:build unix

package logger

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// redirectStderr points file descriptor 2 at a pipe so that output from
// every writer of the descriptor is captured, not just os.Stderr.
func redirectStderr() (io.ReadCloser, func() error, error) {
	saved, err := unix.Dup(unix.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("dup stderr: %w", err)
	}
	r, w, err := os.Pipe()
	if err != nil {
		unix.Close(saved)
		return nil, nil, fmt.Errorf("create pipe: %w", err)
	}
	if err := unix.Dup2(int(w.Fd()), unix.Stderr); err != nil {
		unix.Close(saved)
		r.Close()
		w.Close()
		return nil, nil, fmt.Errorf("redirect stderr: %w", err)
	}

	undo := func() error {
		err := unix.Dup2(saved, unix.Stderr)
		unix.Close(saved)
		// The reader sees EOF once the last write end is gone.
		w.Close()
		if err != nil {
			return fmt.Errorf("restore stderr: %w", err)
		}
		return nil
	}
	return r, undo, nil
}
