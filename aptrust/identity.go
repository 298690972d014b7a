// Package aptrust holds the conventions APTrust imposes on the bags it
// receives: how bags are named and numbered, the access levels and the
// aptrust-info.txt tag file, and how an oversized directory is split into
// multipart bags.
package aptrust

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxParts is the largest number of bags a multipart bag may be split into.
const MaxParts = 999

var (
	// ErrInvalidPartNumbering means a part number is larger than the total
	// number of parts, or only one of the two was given.
	ErrInvalidPartNumbering = errors.New("invalid multipart bag numbering")

	// ErrTooManyParts means a multipart bag would need more than MaxParts
	// bags.
	ErrTooManyParts = errors.New("too many parts in multipart bag")
)

// An Identity is everything that goes into a bag's name. Part and Total are
// both zero for a bag that is not part of a multipart bag.
type Identity struct {
	Institution string
	Base        string
	Part        int
	Total       int
}

// NewIdentity returns the identity for part of total of the bag made from
// the directory named base. Pass 0 for both to get a single bag.
func NewIdentity(institution, base string, part, total int) (Identity, error) {
	id := Identity{
		Institution: institution,
		Base:        base,
		Part:        part,
		Total:       total,
	}
	return id, id.validate()
}

func (id Identity) validate() error {
	switch {
	case id.Part == 0 && id.Total == 0:
		return nil
	case id.Part < 1 || id.Part > id.Total:
		return errors.Wrapf(ErrInvalidPartNumbering, "part %d of %d", id.Part, id.Total)
	case id.Total > MaxParts:
		return errors.Wrapf(ErrTooManyParts, "%d parts", id.Total)
	}
	return nil
}

// Multipart returns true if this bag is one part of a multipart bag.
func (id Identity) Multipart() bool {
	return id.Total > 0
}

// String returns the bag name. An invalid identity renders without its part
// suffix; use Name or NewIdentity to catch that.
func (id Identity) String() string {
	name := id.Institution + "." + normalize(id.Base)
	if id.Multipart() && id.validate() == nil {
		width := len(strconv.Itoa(id.Total))
		name += fmt.Sprintf(".b%0*d.of%0*d", width, id.Part, width, id.Total)
	}
	return name
}

// Name returns the bag name for part of total of the directory dir, e.g.
// "inst.my_dir" or "inst.my_dir.b02.of10". Pass 0 for part and total for a
// bag that is not split.
func Name(dir, institution string, part, total int) (string, error) {
	id, err := NewIdentity(institution, dir, part, total)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// normalize lowercases the directory name and replaces any dots, which are
// reserved for separating the parts of the bag name.
func normalize(dir string) string {
	return strings.ReplaceAll(strings.ToLower(dir), ".", "_")
}
