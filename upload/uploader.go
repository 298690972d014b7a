// Package upload sends finished bag tar files to a store and then waits for
// them to show up there.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ndlib/aptbag/store"
)

// ErrUploadFailed is matched by every error Upload returns.
var ErrUploadFailed = errors.New("upload failed")

// An Error describes a failed upload. Err is the underlying error from
// reading the file or from the transport.
type Error struct {
	Path string // local tar file
	Key  string // remote object key
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upload of %s to %s failed: %v", e.Path, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUploadFailed) true for every *Error.
func (e *Error) Is(target error) bool { return target == ErrUploadFailed }

// An Uploader sends tar files to one store, usually an APTrust receiving
// bucket. There are no retries at this level.
type Uploader struct {
	store store.Store
	log   *zap.SugaredLogger
}

// NewUploader returns an Uploader which puts files into s.
func NewUploader(s store.Store, log *zap.SugaredLogger) *Uploader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Uploader{store: s, log: log}
}

// Upload streams the file at tarPath to the store, using the base name of
// the file as the key, and returns that key. If rep is not nil it is given
// the size of every chunk as it is read.
func (u *Uploader) Upload(tarPath string, rep Reporter) (string, error) {
	key := filepath.Base(tarPath)
	f, err := os.Open(tarPath)
	if err != nil {
		return key, &Error{Path: tarPath, Key: key, Err: err}
	}
	defer f.Close()
	var r io.Reader = f
	if rep != nil {
		r = progressReader{r: f, rep: rep}
	}
	u.log.Debugw("uploading", "path", tarPath, "key", key)
	if err := u.store.Put(key, r); err != nil {
		return key, &Error{Path: tarPath, Key: key, Err: err}
	}
	return key, nil
}
