package logger

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/core"
)

// StderrTag is the tag of events produced from captured standard error
const StderrTag = "stderr"

// StderrPriority is the priority of events produced from captured
// standard error
const StderrPriority = core.Error

// CaptureStderr redirects the process's standard error into the
// dispatcher. Each line becomes one event; the line terminator is
// stripped. The returned function restores the original stream, emits
// any unterminated last line and waits for the reader to finish.
func (d *Dispatcher) CaptureStderr() (restore func() error, err error) {
	r, undo, err := redirectStderr()
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.readLines(r)
	}()

	var once sync.Once
	var restoreErr error
	return func() error {
		once.Do(func() {
			restoreErr = undo()
			<-done
			r.Close()
		})
		return restoreErr
	}, nil
}

// emitCaptured logs a line read from standard error. It is not sent
// to destinations that write to standard error, which would feed it back
// into the pipe.
func (d *Dispatcher) emitCaptured(line string) {
	d.startup()
	if !d.Level().Admits(StderrPriority) {
		return
	}
	d.dispatch(StderrPriority, StderrTag, line, true)
}

// readLines emits every line read from r until EOF
func (d *Dispatcher) readLines(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			d.emitCaptured(line)
		}
		if err != nil {
			if err != io.EOF {
				d.logger.Warn("stderr capture stopped", zap.Error(err))
			}
			return
		}
	}
}
