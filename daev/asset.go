package daev

import (
	"encoding/hex"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ndlib/aptbag/bagit"
	"github.com/ndlib/aptbag/fileutil"
)

// An Asset describes one original file that was sent to preservation.
type Asset struct {
	Filename string
	Size     int64
	Location string // "host:/original/path"
	Created  time.Time
	MD5      string // hex encoded
}

// BuildAssets returns an Asset for every payload file in a bag manifest.
// Each payload path is resolved against root, the directory the bag was made
// from, and the size and creation time are taken from that original file.
// The checksum comes from the manifest. Tag files are skipped.
func BuildAssets(manifest map[string]*bagit.Checksum, root, host string) ([]Asset, error) {
	var names []string
	for name := range manifest {
		if bagit.IsPayload(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var result []Asset
	for _, name := range names {
		rel := strings.TrimPrefix(name, bagit.PayloadDir)
		original := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(original)
		if err != nil {
			return nil, errors.Wrapf(err, "asset %s", name)
		}
		result = append(result, Asset{
			Filename: path.Base(rel),
			Size:     info.Size(),
			Location: host + ":" + original,
			Created:  fileutil.CreationTime(original, info),
			MD5:      hex.EncodeToString(manifest[name].MD5),
		})
	}
	return result, nil
}
