package util

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"hash"
	"io"
	"os"
)

// A HashWriter wraps an io.Writer and also calculates the MD5 and SHA256
// hashes of the bytes written. The BagIt manifests written by this module
// always carry both.
type HashWriter struct {
	io.Writer // our io.MultiWriter
	md5       hash.Hash
	sha256    hash.Hash
	n         int64
}

// NewHashWriter returns a HashWriter wrapping w.
func NewHashWriter(w io.Writer) *HashWriter {
	hw := &HashWriter{
		md5:    md5.New(),
		sha256: sha256.New(),
	}
	hw.Writer = io.MultiWriter(w, hw.md5, hw.sha256)
	return hw
}

// NewHashWriterPlain returns a HashWriter that does not wrap an output
// stream. It only computes the checksums of the data written to it.
func NewHashWriterPlain() *HashWriter {
	return NewHashWriter(io.Discard)
}

func (hw *HashWriter) Write(p []byte) (int, error) {
	n, err := hw.Writer.Write(p)
	hw.n += int64(n)
	return n, err
}

// Size is the number of bytes written so far.
func (hw *HashWriter) Size() int64 { return hw.n }

// MD5 returns the MD5 hash of everything written so far.
func (hw *HashWriter) MD5() []byte { return hw.md5.Sum(nil) }

// SHA256 returns the SHA256 hash of everything written so far.
func (hw *HashWriter) SHA256() []byte { return hw.sha256.Sum(nil) }

// CheckMD5 returns the MD5 hash for this writer, and compares it for equality
// with goal. An empty goal is treated as matching.
func (hw *HashWriter) CheckMD5(goal []byte) ([]byte, bool) {
	computed := hw.MD5()
	return computed, len(goal) == 0 || bytes.Equal(goal, computed)
}

// CheckSHA256 is like CheckMD5 but for the SHA256 hash.
func (hw *HashWriter) CheckSHA256(goal []byte) ([]byte, bool) {
	computed := hw.SHA256()
	return computed, len(goal) == 0 || bytes.Equal(goal, computed)
}

// HashFile reads the named file to the end and returns a HashWriter holding
// its checksums and size.
func HashFile(name string) (*HashWriter, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	hw := NewHashWriterPlain()
	_, err = io.Copy(hw, f)
	return hw, err
}
