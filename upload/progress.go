package upload

import (
	"io"
	"sync"

	"go.uber.org/zap"
)

// A Reporter is told how many bytes each chunk of an upload moved. It may be
// called from goroutines other than the one that started the upload.
type Reporter interface {
	Report(n int64)
}

// Progress is a Reporter that keeps a running total for one file and logs
// the percentage transferred after every chunk.
type Progress struct {
	name  string
	total int64
	log   *zap.SugaredLogger

	m    sync.Mutex // protects seen
	seen int64
}

// NewProgress returns a Progress for the file name, which is total bytes
// long. A nil log discards the messages.
func NewProgress(name string, total int64, log *zap.SugaredLogger) *Progress {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Progress{name: name, total: total, log: log}
}

// Report adds n to the running total. The total never goes down and never
// passes the size of the file.
func (p *Progress) Report(n int64) {
	if n <= 0 {
		return
	}
	p.m.Lock()
	p.seen += n
	if p.seen > p.total {
		p.seen = p.total
	}
	seen := p.seen
	p.m.Unlock()
	p.log.Infof("%s %d / %d (%.2f%%)", p.name, seen, p.total, percent(seen, p.total))
}

// Seen returns the number of bytes transferred so far.
func (p *Progress) Seen() int64 {
	p.m.Lock()
	defer p.m.Unlock()
	return p.seen
}

// Percent returns how much of the file has been transferred, from 0 to 100.
func (p *Progress) Percent() float64 {
	return percent(p.Seen(), p.total)
}

func percent(seen, total int64) float64 {
	if total <= 0 {
		return 100
	}
	return float64(seen) / float64(total) * 100
}

// progressReader passes each read through to a Reporter.
type progressReader struct {
	r   io.Reader
	rep Reporter
}

func (pr progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.rep.Report(int64(n))
	}
	return n, err
}
