// Package archive reads documents packed into zip archives, books are often
// distributed this way (book.fb2.zip).
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when archive has no entry satisfying the match.
var ErrNotFound = errors.New("no matching entry in archive")

// WalkFunc is called for every regular file of the archive satisfying the
// match. Returning an error stops the walk.
type WalkFunc func(archive string, file *zip.File) error

// IsArchive reports whether file name looks like a zip archive.
func IsArchive(name string) bool {
	return strings.EqualFold(path.Ext(name), ".zip")
}

// Walk visits files of the archive in archive order. Entries with absolute
// paths or ".." components make the walk fail.
func Walk(archive string, match func(name string) bool, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !match(name) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath returns false for absolute paths and paths containing ".."
// components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

var errStop = errors.New("stop")

// First returns name and content of the first entry satisfying match.
func First(archive string, match func(name string) bool) (string, []byte, error) {
	var (
		name string
		data []byte
	)
	err := Walk(archive, match, func(_ string, f *zip.File) error {
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		if data, err = io.ReadAll(rc); err != nil {
			return fmt.Errorf("unable to read %s: %w", f.Name, err)
		}
		name = f.Name
		return errStop
	})
	switch {
	case errors.Is(err, errStop):
		return name, data, nil
	case err != nil:
		return "", nil, err
	}
	return "", nil, fmt.Errorf("%s: %w", archive, ErrNotFound)
}

// ReadFile returns content of the named entry. Name is cleaned, so relative
// references like "text/../styles/book.css" work.
func ReadFile(archive, name string) ([]byte, error) {
	want := path.Clean(strings.TrimPrefix(name, "/"))
	_, data, err := First(archive, func(n string) bool { return n == want })
	return data, err
}
