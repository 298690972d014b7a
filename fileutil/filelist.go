// Package fileutil takes the one snapshot of a source directory that an
// ingest run works from, and copies files into a bag staging area.
package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// An Entry is a single regular file found under a source directory.
type Entry struct {
	Path    string    // absolute path
	Size    int64     // in bytes
	Created time.Time // see CreationTime
}

// List walks root and returns an Entry for every regular file beneath it,
// sorted lexicographically by path. A symbolic link to a regular file is
// listed as that file, with the target's size. Links to directories are
// not followed, and other irregular files are skipped. A dangling link is
// an error. Root is made absolute first.
func List(root string) ([]Entry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	var result []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := regularInfo(path, d)
		if err != nil || info == nil {
			return err
		}
		result = append(result, Entry{
			Path:    path,
			Size:    info.Size(),
			Created: CreationTime(path, info),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", root)
	}
	// WalkDir is already lexical per directory, but "a/b" vs "a.b" can
	// come out differently from a plain string sort. Callers number bag
	// parts from this order, so fix it.
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// regularInfo returns the file info for the walk entry d if it is a regular
// file or a symbolic link to one, and nil otherwise.
func regularInfo(path string, d fs.DirEntry) (fs.FileInfo, error) {
	switch {
	case d.Type().IsRegular():
		return d.Info()
	case d.Type()&fs.ModeSymlink != 0:
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "following link %s", path)
		}
		if info.Mode().IsRegular() {
			return info, nil
		}
	}
	return nil, nil
}

// TotalSize returns the sum of the sizes of the given entries.
func TotalSize(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total
}
