package workspace

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	po "github.com/minios-linux/poshare/pofile"
)

// DownloadName suggests a file name for the session's download bundle, built
// from the last path components of the catalog and the language.
func DownloadName(sess *Session) string {
	parts := strings.Split(filepath.ToSlash(sess.Path), "/")
	name := parts[len(parts)-1]
	if len(parts) >= 5 {
		name = strings.Join(parts[len(parts)-5:], "_")
	}
	return fmt.Sprintf("%s.%s.zip", name, sess.Language)
}

// Download writes a zip archive with the session's current catalog and its
// compiled form, including unsaved shadow edits.
func (w *Workspace) Download(sess *Session, out io.Writer) error {
	f, err := w.Load(sess)
	if err != nil {
		return err
	}

	base := filepath.Base(sess.Path)
	zw := zip.NewWriter(out)
	files := []struct {
		name string
		data []byte
	}{
		{base, f.Bytes()},
		{filepath.Base(po.MOPath(base)), f.MO()},
	}
	for _, file := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     file.name,
			Method:   zip.Deflate,
			Modified: w.now(),
		})
		if err != nil {
			return fmt.Errorf("adding %s: %w", file.name, err)
		}
		if _, err := fw.Write(file.data); err != nil {
			return fmt.Errorf("writing %s: %w", file.name, err)
		}
	}
	return zw.Close()
}
