// Package persist writes catalogs back to disk.
//
// Writes replace the file atomically, so a reader never observes a partial
// catalog. The modification time of the text file doubles as the catalog
// version.
package persist

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/natefinch/atomic"

	po "github.com/minios-linux/poshare/pofile"
)

// Writable reports whether path can be opened for writing. The file is not
// truncated and its modification time is left alone.
func Writable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Version returns the modification time of path.
func Version(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Outcome describes a completed save.
type Outcome struct {
	Path    string
	MOPath  string // empty when no MO file was written
	Version time.Time
	// CompileErr is set when the PO file was replaced but its MO file could
	// not be written. The save itself still counts as done.
	CompileErr error
}

// Writer saves catalogs to their Path.
type Writer struct {
	// AutoCompile also writes the compiled MO file next to the PO file.
	AutoCompile bool
}

// Writable reports whether the catalog at path may be saved.
func (w Writer) Writable(path string) bool {
	return Writable(path)
}

// Save serializes f and replaces f.Path with the result. A file that is not
// writable is refused even when its directory would allow the replacement.
// A failed MO write is reported in Outcome.CompileErr, not as an error, since
// the catalog itself is already on disk by then.
func (w Writer) Save(f *po.File) (Outcome, error) {
	if f.Path == "" {
		return Outcome{}, fmt.Errorf("saving catalog: no path")
	}
	if _, err := os.Stat(f.Path); err == nil && !Writable(f.Path) {
		return Outcome{}, fmt.Errorf("saving %s: %w", f.Path, os.ErrPermission)
	}

	if err := atomic.WriteFile(f.Path, bytes.NewReader(f.Bytes())); err != nil {
		return Outcome{}, fmt.Errorf("writing %s: %w", f.Path, err)
	}
	out := Outcome{Path: f.Path}

	if w.AutoCompile {
		moPath := po.MOPath(f.Path)
		if err := f.WriteMOFile(moPath); err != nil {
			out.CompileErr = fmt.Errorf("writing %s: %w", moPath, err)
		} else {
			out.MOPath = moPath
		}
	}

	v, err := Version(f.Path)
	if err != nil {
		return out, fmt.Errorf("reading version of %s: %w", f.Path, err)
	}
	out.Version = v
	return out, nil
}
