package fileutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// CopyFile copies the contents of src to dst, then sets the permission bits
// and modification time of dst to match src. Dst is created or truncated.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if err2 := out.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return errors.Wrapf(err, "copying %s", src)
	}
	if err = os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// CopyInto copies the file src, which must lie under root, to the same
// relative location under dst. Intermediate directories are created.
func CopyInto(src, root, dst string) error {
	rel, err := filepath.Rel(root, src)
	if err != nil {
		return err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Errorf("%s is not inside %s", src, root)
	}
	target := filepath.Join(dst, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return CopyFile(src, target)
}

// CopyTree copies the directory src to dst, which must not exist yet. Only
// directories and regular files are copied, matching what List returns. A
// link to a regular file is copied as the file it points to.
func CopyTree(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return errors.Wrap(fs.ErrExist, dst)
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		info, err := regularInfo(path, d)
		if err != nil || info == nil {
			return err
		}
		return CopyFile(path, target)
	})
}
