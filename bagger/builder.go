// Package bagger builds APTrust bags. It copies the source files into a
// staging area, makes the staged copy into a bag with an aptrust-info.txt,
// and tars it for upload.
package bagger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ndlib/aptbag/aptrust"
	"github.com/ndlib/aptbag/bagit"
	"github.com/ndlib/aptbag/fileutil"
)

var (
	// ErrMissingTitle means a bag was requested without a title for its
	// aptrust-info.txt.
	ErrMissingTitle = errors.New("bag title is empty")

	// ErrStagingExists means the staging directory or tar file for a bag
	// is already there, most likely left over from an earlier run.
	ErrStagingExists = errors.New("bag already staged")
)

// A Source is the content going into one bag.
type Source interface {
	// stage copies the content into the directory dst, which does not
	// exist yet.
	stage(dst string) error
}

// DirSource bags an entire directory.
type DirSource struct {
	Dir string
}

func (s DirSource) stage(dst string) error {
	return fileutil.CopyTree(s.Dir, dst)
}

// FileSource bags a list of files taken from under Root. Each file keeps its
// path relative to Root inside the bag.
type FileSource struct {
	Root  string
	Files []fileutil.Entry
}

func (s FileSource) stage(dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	for _, f := range s.Files {
		if err := fileutil.CopyInto(f.Path, s.Root, dst); err != nil {
			return err
		}
	}
	return nil
}

// A Builder makes bags inside a staging directory. A Builder holds no state
// between calls to Build, so one can be shared by several goroutines as long
// as they build bags with different names.
type Builder struct {
	StagingDir   string
	Organization string // if set, saved as the Source-Organization tag
	log          *zap.SugaredLogger
}

// NewBuilder returns a Builder which stages bags under stagingDir.
func NewBuilder(stagingDir string, log *zap.SugaredLogger) *Builder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Builder{StagingDir: stagingDir, log: log}
}

// Build stages src under the name given by id, makes it into a bag, writes
// its aptrust-info.txt with the given title and access level, and tars it.
// It returns the bag and the path of the tar file. The access level and
// title are checked before anything is written.
func (b *Builder) Build(id aptrust.Identity, src Source, access aptrust.Access, title string) (*bagit.Bag, string, error) {
	access, err := aptrust.ParseAccess(string(access))
	if err != nil {
		return nil, "", err
	}
	if title == "" {
		return nil, "", ErrMissingTitle
	}
	name := id.String()
	dir := filepath.Join(b.StagingDir, name)
	tarPath := dir + ".tar"
	for _, p := range []string{dir, tarPath} {
		if _, err := os.Lstat(p); err == nil {
			return nil, "", errors.Wrap(ErrStagingExists, p)
		}
	}
	if err := os.MkdirAll(b.StagingDir, 0755); err != nil {
		return nil, "", err
	}

	bag, err := b.assemble(id, src, dir, tarPath, access, title)
	if err != nil {
		// leave nothing behind that would block a rerun
		os.RemoveAll(dir)
		return nil, "", err
	}
	return bag, tarPath, nil
}

// assemble stages src into dir and turns it into a bag and a tar file.
func (b *Builder) assemble(id aptrust.Identity, src Source, dir, tarPath string, access aptrust.Access, title string) (*bagit.Bag, error) {
	name := id.String()
	b.log.Debugw("staging files", "bag", name, "dir", dir)
	if err := src.stage(dir); err != nil {
		return nil, errors.Wrapf(err, "staging %s", name)
	}

	tags := map[string]string{
		"Internal-Sender-Identifier": name,
	}
	if id.Multipart() {
		tags["Bag-Count"] = fmt.Sprintf("%d of %d", id.Part, id.Total)
	}
	if b.Organization != "" {
		tags["Source-Organization"] = b.Organization
	}
	b.log.Debugw("making bag", "bag", name)
	bag, err := bagit.Make(dir, tags)
	if err != nil {
		return nil, errors.Wrapf(err, "making bag %s", name)
	}
	if err := bag.AddTagFile(aptrust.InfoFile, aptrust.Info(title, access)); err != nil {
		return nil, err
	}

	b.log.Debugw("tarring bag", "bag", name, "tar", tarPath)
	if err := bagit.Tar(dir, tarPath); err != nil {
		return nil, err
	}
	return bag, nil
}

// Clean removes the staged bag directory and its tar file.
func (b *Builder) Clean(bag *bagit.Bag, tarPath string) error {
	err := os.RemoveAll(bag.Dir())
	if err2 := os.Remove(tarPath); err == nil && !os.IsNotExist(err2) {
		err = err2
	}
	return err
}
