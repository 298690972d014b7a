// Package audit keeps the local record of every bag sent to preservation.
// The record is a plain text file with one tab separated line per upload.
package audit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TimeFormat is how upload times are written in the log.
const TimeFormat = "2006-01-02 15:04:05"

// ErrMalformedLine is returned by Parse for a line without six fields.
var ErrMalformedLine = errors.New("malformed audit line")

// An Entry is one line of the audit log.
type Entry struct {
	Time        time.Time
	Bag         string // bag name
	Tar         string // absolute path of the uploaded tar file
	Source      string // directory the bag was made from
	Access      string
	Environment string // "test" or "production"
}

func (e Entry) String() string {
	return strings.Join([]string{
		e.Time.Format(TimeFormat),
		e.Bag,
		e.Tar,
		e.Source,
		e.Access,
		e.Environment,
	}, "\t")
}

// A Log appends entries to a file. Appends from different goroutines are
// serialized.
type Log struct {
	path string
	m    sync.Mutex
}

// Open returns a Log writing to path. The file is created on first append.
func Open(path string) *Log {
	return &Log{path: path}
}

// Path returns the file the log writes to.
func (l *Log) Path() string { return l.path }

// Append writes e as a single line at the end of the log.
func (l *Log) Append(e Entry) error {
	l.m.Lock()
	defer l.m.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "opening audit log")
	}
	_, err = fmt.Fprintln(f, e.String())
	err2 := f.Close()
	if err == nil {
		err = err2
	}
	return errors.Wrap(err, "writing audit log")
}

// Parse reads the entries in an audit log. Blank lines are skipped.
func Parse(r io.Reader) ([]Entry, error) {
	var result []Entry
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			return result, errors.Wrapf(ErrMalformedLine, "line %d", lineno)
		}
		t, err := time.ParseInLocation(TimeFormat, fields[0], time.Local)
		if err != nil {
			return result, errors.Wrapf(ErrMalformedLine, "line %d: %v", lineno, err)
		}
		result = append(result, Entry{
			Time:        t,
			Bag:         fields[1],
			Tar:         fields[2],
			Source:      fields[3],
			Access:      fields[4],
			Environment: fields[5],
		})
	}
	return result, scanner.Err()
}

// ReadFile parses the audit log at path.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
