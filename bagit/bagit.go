// Package bagit implements enough of the BagIt specification to create the
// bags APTrust accepts, read them back, and verify them. Bags are built in
// place from a staged directory on disk and then serialized with Tar into an
// uncompressed tar file, which is the unit that gets uploaded.
//
// Only MD5 and SHA256 checksums are supported. Payload manifests are written
// for both; the tag manifest uses MD5. Fetch files and holey bags are not
// implemented. Multiple occurrences of a tag in bag-info.txt are not
// preserved.
//
// Checksums are generated for each file when a bag is made. After that they
// are only recalculated when the bag is explicitly verified.
//
// The BagIt spec can be found at https://tools.ietf.org/html/draft-kunze-bagit-11.
package bagit

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Bag represents a single BagIt directory on disk.
type Bag struct {
	// the directory holding the bag. Its base name is the bag's name.
	dir string

	// for each file in this bag, the checksums we expect for it. Keys are
	// slash separated and relative to dir. Payload files begin with
	// "data/". Tag and control files don't.
	manifest map[string]*Checksum

	// list of tags saved in the bag-info.txt file. The key is the tag
	// name, and the value is the content saved for that tag. Content
	// strings are not wrapped at column 75 in this implementation.
	tags map[string]string
}

// Checksum contains all the checksums we know about for a given file.
// Some entries may be empty. At least one entry should be present.
type Checksum struct {
	MD5    []byte
	SHA256 []byte
}

const (
	// Version is the version of the BagIt specification this package implements.
	Version = "0.97"

	// PayloadDir is the prefix every payload path in a manifest has.
	PayloadDir = "data/"
)

func newBag(dir string) *Bag {
	return &Bag{
		dir:      dir,
		manifest: make(map[string]*Checksum),
		tags:     make(map[string]string),
	}
}

// Dir returns the directory the bag lives in.
func (b *Bag) Dir() string { return b.dir }

// Name returns the bag's name, which is the base name of its directory.
func (b *Bag) Name() string { return filepath.Base(b.dir) }

// Manifest returns the checksums for every file in the bag, payload and tag
// files both, keyed by their slash separated path inside the bag. The map is
// shared with the bag and should not be modified.
func (b *Bag) Manifest() map[string]*Checksum { return b.manifest }

// Tags returns the contents of bag-info.txt.
func (b *Bag) Tags() map[string]string { return b.tags }

// Payload returns the sorted list of payload files in the bag, relative to
// the payload directory.
func (b *Bag) Payload() []string {
	var result []string
	for name := range b.manifest {
		if IsPayload(name) {
			result = append(result, strings.TrimPrefix(name, PayloadDir))
		}
	}
	sort.Strings(result)
	return result
}

// IsPayload returns true if the manifest path name lies under the payload
// directory.
func IsPayload(name string) bool {
	return strings.HasPrefix(name, PayloadDir)
}

// abs converts a manifest path into a filesystem path.
func (b *Bag) abs(name string) string {
	return filepath.Join(b.dir, filepath.FromSlash(path.Clean(name)))
}
