package aptrust

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Access is an APTrust access level. It controls who may see a bag's
// metadata once it is ingested.
type Access string

// The access levels APTrust accepts.
const (
	Consortia   Access = "consortia"
	Institution Access = "institution"
	Restricted  Access = "restricted"
)

// InfoFile is the tag file APTrust requires in every bag.
const InfoFile = "aptrust-info.txt"

// ErrInvalidAccessLevel means an access level is not one APTrust knows.
var ErrInvalidAccessLevel = errors.New("invalid access level")

// ParseAccess returns the Access named by s. Case is ignored.
func ParseAccess(s string) (Access, error) {
	a := Access(strings.ToLower(s))
	switch a {
	case Consortia, Institution, Restricted:
		return a, nil
	}
	return "", errors.Wrapf(ErrInvalidAccessLevel, "%q", s)
}

// Title returns the access level with its first letter capitalized, the way
// it is written in aptrust-info.txt.
func (a Access) Title() string {
	if a == "" {
		return ""
	}
	return strings.ToUpper(string(a[:1])) + string(a[1:])
}

// Info returns the contents of the aptrust-info.txt file for a bag.
func Info(title string, a Access) []byte {
	return []byte(fmt.Sprintf("Title: %s\nAccess: %s\n", title, a.Title()))
}
