package bagit

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ndlib/aptbag/util"
)

var (
	// ErrNotBag means the directory has no bagit.txt file.
	ErrNotBag = errors.New("not a bag")

	// ErrMalformedManifest means a manifest line could not be parsed.
	ErrMalformedManifest = errors.New("malformed manifest")

	// ErrChecksumMismatch means a file's contents do not match the
	// manifest.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrMissingFile means a file listed in a manifest is not in the bag.
	ErrMissingFile = errors.New("file in manifest is missing")

	// ErrExtraFile means a payload file is not listed in any manifest.
	ErrExtraFile = errors.New("payload file not in manifest")
)

// Open reads the bag in the directory dir. The tag files and all the md5
// and sha256 manifests are loaded, but checksums are not checked. Call
// Verify() for that.
func Open(dir string) (*Bag, error) {
	b := newBag(dir)
	if _, err := os.Stat(b.abs("bagit.txt")); err != nil {
		return nil, errors.Wrap(ErrNotBag, dir)
	}
	for _, name := range []string{"bagit.txt", "bag-info.txt"} {
		if err := b.loadTagFile(name); err != nil {
			return nil, err
		}
	}
	manifests := []struct {
		name string
		set  func(*Checksum, []byte)
	}{
		{"manifest-md5.txt", (*Checksum).setmd5},
		{"manifest-sha256.txt", (*Checksum).setsha256},
		{"tagmanifest-md5.txt", (*Checksum).setmd5},
		{"tagmanifest-sha256.txt", (*Checksum).setsha256},
	}
	for _, m := range manifests {
		if err := b.loadManifest(m.name, m.set); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (c *Checksum) setmd5(h []byte)    { c.MD5 = h }
func (c *Checksum) setsha256(h []byte) { c.SHA256 = h }

// loadTagFile reads "Name: value" lines. A line beginning with white space
// continues the previous value. A missing file is not an error.
func (b *Bag) loadTagFile(name string) error {
	data, err := os.ReadFile(b.abs(name))
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	var last string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && last != "" {
			b.tags[last] += " " + strings.TrimSpace(line)
			continue
		}
		v := strings.SplitN(line, ":", 2)
		if len(v) != 2 {
			continue
		}
		last = strings.TrimSpace(v[0])
		b.tags[last] = strings.TrimSpace(v[1])
	}
	return scanner.Err()
}

// loadManifest reads a manifest of "checksum path" lines. A missing
// manifest is not an error.
func (b *Bag) loadManifest(name string, set func(*Checksum, []byte)) error {
	data, err := os.ReadFile(b.abs(name))
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return errors.Wrapf(ErrMalformedManifest, "%s: %q", name, line)
		}
		h, err := hex.DecodeString(fields[0])
		if err != nil {
			return errors.Wrapf(ErrMalformedManifest, "%s: %q", name, line)
		}
		// the path is everything after the checksum, which may contain spaces
		fname := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		fname = strings.TrimPrefix(fname, "*")
		ck := b.manifest[fname]
		if ck == nil {
			ck = new(Checksum)
			b.manifest[fname] = ck
		}
		set(ck, h)
	}
	return scanner.Err()
}

// Verify recomputes the checksum of every file listed in a manifest and
// checks that every payload file is listed. The first problem found, in
// path order, is returned.
func (b *Bag) Verify() error {
	var names []string
	for name := range b.manifest {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ck := b.manifest[name]
		hw, err := util.HashFile(b.abs(name))
		if os.IsNotExist(err) {
			return errors.Wrap(ErrMissingFile, name)
		} else if err != nil {
			return err
		}
		_, ok1 := hw.CheckMD5(ck.MD5)
		_, ok2 := hw.CheckSHA256(ck.SHA256)
		if !ok1 || !ok2 {
			return errors.Wrap(ErrChecksumMismatch, name)
		}
	}
	payload := b.abs(PayloadDir)
	return filepath.WalkDir(payload, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(b.dir, p)
		rel = filepath.ToSlash(rel)
		if _, ok := b.manifest[rel]; !ok {
			return errors.Wrap(ErrExtraFile, rel)
		}
		return nil
	})
}
