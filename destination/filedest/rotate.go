package filedest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// backupName returns the path of backup number idx; 0 is the base file.
func backupName(path string, idx int) string {
	if idx == 0 {
		return path
	}
	return fmt.Sprintf("%s.%d", path, idx)
}

// rotateIfNeeded shifts path into the numbered backups when the existing
// file is larger than maxLength:
//
//	path.maxFiles is deleted, path.i becomes path.i+1, path becomes path.1
//
// Backup 1 is always the most recent.
func rotateIfNeeded(path string, maxFiles int, maxLength int64) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if maxLength >= 0 && info.Size() <= maxLength {
		return nil
	}

	if err := os.Remove(backupName(path, maxFiles)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for i := maxFiles - 1; i >= 1; i-- {
		from := backupName(path, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, backupName(path, i+1)); err != nil {
			return err
		}
	}
	return os.Rename(path, backupName(path, 1))
}

// ArchivedFiles lists the base file followed by every existing backup,
// most recent first.
func (d *FileDestination) ArchivedFiles() ([]string, bool) {
	return ListFiles(d.path, d.maxFiles), true
}

// ListFiles returns path and its existing backups up to maxFiles, most
// recent first.
func ListFiles(path string, maxFiles int) []string {
	files := make([]string, 0, maxFiles+1)
	for i := 0; i <= maxFiles; i++ {
		name := backupName(path, i)
		if _, err := os.Stat(name); err == nil {
			files = append(files, name)
		}
	}
	return files
}
