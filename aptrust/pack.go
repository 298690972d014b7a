package aptrust

import (
	"github.com/ndlib/aptbag/fileutil"
)

// A Group is the list of files destined for one bag.
type Group []fileutil.Entry

// Size returns the total size of the files in the group.
func (g Group) Size() int64 {
	return fileutil.TotalSize(g)
}

// Pack splits files into groups whose sizes are at most threshold. It makes
// one pass, in the order given, starting a new group whenever the next file
// would push the current one over threshold. Files are never reordered, so
// this is not an optimal packing. A file larger than threshold ends up alone
// in its own group; deciding whether that is acceptable is up to the caller.
func Pack(files []fileutil.Entry, threshold int64) []Group {
	var result []Group
	var current Group
	var total int64
	for _, f := range files {
		if total+f.Size > threshold && len(current) > 0 {
			result = append(result, current)
			current = nil
			total = 0
		}
		current = append(current, f)
		total += f.Size
	}
	if len(current) > 0 {
		result = append(result, current)
	}
	return result
}
