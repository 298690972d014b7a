package bagit

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ndlib/aptbag/util"
)

// Make turns the directory dir into a bag. Everything in dir is moved under
// a new "data/" subdirectory, every payload file is checksummed, and the
// bagit.txt, bag-info.txt, payload manifests and tag manifest are written.
// The given tags are added to bag-info.txt alongside "Payload-Oxum",
// "Bagging-Date" and "Bag-Size", which Make computes itself.
func Make(dir string, tags map[string]string) (*Bag, error) {
	b := newBag(dir)
	if err := b.movePayload(); err != nil {
		return nil, err
	}
	var ns int   // number of payload files
	var sz int64 // size of the payload files, in bytes
	payload := filepath.Join(dir, strings.TrimSuffix(PayloadDir, "/"))
	err := filepath.WalkDir(payload, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		hw, err := util.HashFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		b.manifest[filepath.ToSlash(rel)] = &Checksum{
			MD5:    hw.MD5(),
			SHA256: hw.SHA256(),
		}
		ns++
		sz += hw.Size()
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "checksumming %s", payload)
	}

	for k, v := range tags {
		b.tags[k] = v
	}
	b.tags["Payload-Oxum"] = fmt.Sprintf("%d.%d", sz, ns)
	b.tags["Bagging-Date"] = time.Now().Format("2006-01-02")
	b.tags["Bag-Size"] = humansize(sz)

	if err := b.writeTags(); err != nil {
		return nil, err
	}
	if err := b.writeManifests(); err != nil {
		return nil, err
	}
	return b, nil
}

// movePayload moves the current contents of the bag directory into "data/".
// A temporary directory is used since the payload may itself contain a
// "data" entry.
func (b *Bag) movePayload() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(b.dir, ".payload-")
	if err != nil {
		return err
	}
	for _, e := range entries {
		err = os.Rename(filepath.Join(b.dir, e.Name()), filepath.Join(tmp, e.Name()))
		if err != nil {
			return err
		}
	}
	return os.Rename(tmp, b.abs(PayloadDir))
}

// AddTagFile writes an extra tag file into the bag and refreshes the tag
// manifest so it is covered. Name must not be inside the payload directory.
func (b *Bag) AddTagFile(name string, content []byte) error {
	if IsPayload(name) {
		return errors.Errorf("tag file %s is inside the payload", name)
	}
	if err := b.writeFile(name, content); err != nil {
		return err
	}
	return b.writeTagManifest()
}

// writeFile saves content into the bag under name and records its checksum.
func (b *Bag) writeFile(name string, content []byte) error {
	hw := util.NewHashWriterPlain()
	hw.Write(content)
	err := os.WriteFile(b.abs(name), content, 0644)
	if err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	b.manifest[name] = &Checksum{MD5: hw.MD5(), SHA256: hw.SHA256()}
	return nil
}

func (b *Bag) writeTags() error {
	// first write bag-it marker file
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "BagIt-Version: %s\n", Version)
	fmt.Fprintf(&buf, "Tag-File-Character-Encoding: UTF-8\n")
	if err := b.writeFile("bagit.txt", buf.Bytes()); err != nil {
		return err
	}

	// now write tags file, sorted so bags are reproducible
	buf.Reset()
	keys := make([]string, 0, len(b.tags))
	for k := range b.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s: %s\n", k, b.tags[k])
	}
	return b.writeFile("bag-info.txt", buf.Bytes())
}

func (b *Bag) writeManifests() error {
	err := b.writeManifest("manifest-md5.txt", IsPayload, Checksum.md5)
	if err == nil {
		err = b.writeManifest("manifest-sha256.txt", IsPayload, Checksum.sha256)
	}
	if err == nil {
		err = b.writeTagManifest()
	}
	return err
}

const tagManifest = "tagmanifest-md5.txt"

func (b *Bag) writeTagManifest() error {
	// tag manifests only include files NOT having the prefix "data/"
	return b.writeManifest(tagManifest, func(name string) bool {
		return !IsPayload(name) && name != tagManifest
	}, Checksum.md5)
}

// access methods used by writeManifest() below
func (c Checksum) md5() []byte    { return c.MD5 }
func (c Checksum) sha256() []byte { return c.SHA256 }

func (b *Bag) writeManifest(mname string, include func(string) bool, hash func(Checksum) []byte) error {
	var names []string
	for fname := range b.manifest {
		if include(fname) {
			names = append(names, fname)
		}
	}
	sort.Strings(names)
	var buf bytes.Buffer
	for _, fname := range names {
		h := hash(*b.manifest[fname])
		// does this file have a checksum of this type?
		if len(h) == 0 {
			continue
		}
		// The 2 spaces is to be identical to the GNU md5sum output.
		fmt.Fprintf(&buf, "%s  %s\n", hex.EncodeToString(h), fname)
	}
	if mname == tagManifest {
		// the tag manifest does not list itself
		return os.WriteFile(b.abs(mname), buf.Bytes(), 0644)
	}
	return b.writeFile(mname, buf.Bytes())
}

// Metric constants for humansize. Lowercased so as to be unexported.
const (
	kb int64 = 1000
	mb       = 1000 * kb
	gb       = 1000 * mb
	tb       = 1000 * gb
)

func humansize(size int64) string {
	var units string
	switch {
	case size < kb:
		units = "Bytes"
	case size < mb:
		size /= kb
		units = "KB"
	case size < gb:
		size /= mb
		units = "MB"
	case size < tb:
		size /= gb
		units = "GB"
	default:
		size /= tb
		units = "TB"
	}
	return fmt.Sprintf("%d %s", size, units)
}
