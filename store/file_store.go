package store

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	raven "github.com/getsentry/raven-go"
	"github.com/pkg/errors"
)

// FileSystem implements a store kept in a single directory. Each key is a
// file name in that directory. Content is written into a scratch
// subdirectory first and renamed into place when complete, so a partial
// upload is never visible to ListPrefix.
type FileSystem struct {
	root string
}

const (
	// the subdir to store files while they are being written to.
	scratchdir = ".scratch"
)

var (
	// make sure it implements the Store interface
	_ Store = &FileSystem{}
)

// NewFileSystem creates a new FileSystem store based at the given root path.
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{root}
}

// ListPrefix returns the keys in the store which begin with prefix, sorted.
func (s *FileSystem) ListPrefix(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// Put copies r into the file named key. It is an error if the key exists.
func (s *FileSystem) Put(key string, r io.Reader) error {
	if err := validateKey(key); err != nil {
		return err
	}
	target := filepath.Join(s.root, key)
	if _, err := os.Stat(target); err == nil {
		return ErrKeyExists
	}
	scratch := filepath.Join(s.root, scratchdir)
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(scratch, key+"-")
	if err != nil {
		return err
	}
	_, err = io.Copy(f, r)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err == nil {
		err = os.Rename(f.Name(), target)
	}
	if err != nil {
		os.Remove(f.Name())
		raven.CaptureError(err, map[string]string{"Root": s.root, "Key": key})
		return errors.Wrapf(err, "saving %s", target)
	}
	return nil
}

// validateKey rejects keys which would not make a plain file name.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || key == scratchdir {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	if !utf8.ValidString(key) {
		return errors.Wrapf(ErrInvalidKey, "%q is not UTF-8", key)
	}
	for _, r := range key {
		switch {
		case r == '/' || r == filepath.Separator:
			return errors.Wrapf(ErrInvalidKey, "%q contains a slash", key)
		case unicode.IsControl(r):
			return errors.Wrapf(ErrInvalidKey, "%q contains a control character", key)
		}
	}
	return nil
}
