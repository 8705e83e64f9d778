package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"profscreen/internal/services"
)

// SaveError reports a failure to persist a report to Path.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save report to %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// PermissionDenied reports whether the failure was an access problem.
func (e *SaveError) PermissionDenied() bool {
	return errors.Is(e.Err, services.ErrPermissionDenied)
}

func saveError(path, op string, err error) error {
	marker := services.ErrWrite
	if isPermission(err) {
		marker = services.ErrPermissionDenied
	}
	return &SaveError{Path: path, Err: services.Wrap(marker, "saving", op, "", err)}
}

func isPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, unix.EROFS)
}

// Save writes rep to dest as CSV, creating parent directories. The file is
// written to a temporary sibling and renamed into place while holding an
// advisory lock on dest+".lock", so readers never observe a partial report
// and concurrent writers do not interleave.
func Save(rep *Report, dest string) (err error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return &SaveError{Path: dest, Err: services.Wrap(services.ErrWrite, "saving", "path", "empty destination", nil)}
	}
	if rep == nil {
		rep = &Report{}
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return saveError(dest, "create directory", err)
	}

	lock := flock.New(dest + ".lock")
	if err := lock.Lock(); err != nil {
		return saveError(dest, "lock", err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = saveError(dest, "unlock", unlockErr)
		}
	}()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return saveError(dest, "create temp file", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := writeCSV(tmp, rep); err != nil {
		_ = tmp.Close()
		return saveError(dest, "write", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return saveError(dest, "sync", err)
	}
	if err := tmp.Close(); err != nil {
		return saveError(dest, "close", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return saveError(dest, "chmod", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return saveError(dest, "rename", err)
	}
	committed = true
	return nil
}

func writeCSV(file *os.File, rep *Report) error {
	writer := csv.NewWriter(file)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, rec := range rep.Records {
		if err := writer.Write([]string{rec.Segment, rec.Text, strconv.Itoa(rec.Label)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CheckWritable reports whether dest could be created or replaced by the
// current user. It checks the nearest existing ancestor directory, and dest
// itself when it already exists.
func CheckWritable(dest string) error {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return &SaveError{Path: dest, Err: services.Wrap(services.ErrWrite, "preflight", "path", "empty destination", nil)}
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return saveError(dest, "resolve", err)
	}

	if info, statErr := os.Stat(abs); statErr == nil {
		if info.IsDir() {
			return &SaveError{Path: dest, Err: services.Wrap(services.ErrWrite, "preflight", "path", "destination is a directory", nil)}
		}
		if err := unix.Access(abs, unix.W_OK); err != nil {
			return saveError(dest, "access", err)
		}
	}

	dir := filepath.Dir(abs)
	for {
		info, statErr := os.Stat(dir)
		if statErr == nil {
			if !info.IsDir() {
				return &SaveError{Path: dest, Err: services.Wrap(services.ErrWrite, "preflight", "path",
					fmt.Sprintf("%s is not a directory", dir), nil)}
			}
			break
		}
		if !errors.Is(statErr, fs.ErrNotExist) {
			return saveError(dest, "stat", statErr)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return saveError(dest, "access", err)
	}
	return nil
}
