package filedest

import (
	"bytes"
	"io"
	"os"
)

// RetrieveHistory returns up to the last limit bytes of the current file
// as complete lines, oldest first. A partial first line is skipped. An
// I/O failure is reported as the history text itself.
func (d *FileDestination) RetrieveHistory(limit int) (string, bool) {
	if limit <= 0 {
		return "", true
	}

	// Make everything written so far visible to the reader.
	d.mu.Lock()
	d.bufWriter.Flush()
	d.mu.Unlock()

	history, err := ReadHistory(d.path, limit)
	if err != nil {
		return err.Error(), true
	}
	return history, true
}

// ReadHistory reads the tail of a log file without opening a destination,
// with the same line rules as RetrieveHistory.
func ReadHistory(path string, limit int) (string, error) {
	if limit <= 0 {
		return "", nil
	}
	data, err := readTail(path, int64(limit))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readTail(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	offset := int64(0)
	if info.Size() > limit {
		offset = info.Size() - limit
	}

	// Read one extra byte before the window to tell whether the window
	// starts on a line boundary.
	start := offset
	if offset > 0 {
		start--
	}
	buf := make([]byte, info.Size()-start)
	n, err := f.ReadAt(buf, start)
	if err != nil && err != io.EOF {
		return nil, err
	}
	buf = buf[:n]

	if offset > 0 {
		boundary := buf[0] == '\n'
		buf = buf[1:]
		if !boundary {
			i := bytes.IndexByte(buf, '\n')
			if i < 0 {
				return nil, nil
			}
			buf = buf[i+1:]
		}
	}

	// Drop a trailing partial line.
	if i := bytes.LastIndexByte(buf, '\n'); i < len(buf)-1 {
		buf = buf[:i+1]
	}
	return buf, nil
}
