// Package ingest runs the whole process of sending a directory to APTrust:
// the directory is bagged, split into several bags if it is too large, and
// each bag is uploaded, verified, written to the audit log and submitted to
// DAEV.
package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/getsentry/raven-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ndlib/aptbag/aptrust"
	"github.com/ndlib/aptbag/audit"
	"github.com/ndlib/aptbag/bagger"
	"github.com/ndlib/aptbag/bagit"
	"github.com/ndlib/aptbag/daev"
	"github.com/ndlib/aptbag/fileutil"
	"github.com/ndlib/aptbag/upload"
)

var (
	// ErrNoFiles means the directory to bag has no regular files in it.
	ErrNoFiles = errors.New("no files to bag")

	// ErrTooLarge means a single file is larger than the multipart
	// threshold and oversized bags are not allowed.
	ErrTooLarge = errors.New("file larger than the multipart threshold")

	// ErrIncomplete is returned by Run when at least one bag failed. The
	// individual results say which ones.
	ErrIncomplete = errors.New("some bags were not ingested")

	// ErrInvalidBagName means the requested bag name would not stay inside
	// the staging directory.
	ErrInvalidBagName = errors.New("invalid bag name")
)

// A Stage names a step in processing a bag.
type Stage string

// The stages, in the order they run.
const (
	StageBuild  Stage = "build"
	StageUpload Stage = "upload"
	StageVerify Stage = "verify"
	StageAudit  Stage = "audit"
	StageAssets Stage = "assets"
	StageSubmit Stage = "submit"
)

// Settings are the choices that hold for every run of a Pipeline.
type Settings struct {
	Institution    string
	Environment    string // "test" or "production"
	Threshold      int64  // largest bag, in bytes, before a directory is split
	Workers        int    // bags processed at once; at least 1
	AllowOversized bool   // bag a single file larger than Threshold by itself
	Cleanup        bool   // remove the staged bag and tar after ingesting
	ServiceCode    string // sent with DAEV submissions
	Host           string // host name used in asset locations
	ShowProgress   bool   // log upload progress
}

// A Submitter records the assets in an uploaded bag. *daev.Client is the
// usual implementation.
type Submitter interface {
	Submit(serviceCode string, at time.Time, assets []daev.Asset) (string, error)
}

// Deps are the components a Pipeline drives. Builder, Uploader, Verifier and
// Audit are required. A nil Submitter skips DAEV submission.
type Deps struct {
	Builder   *bagger.Builder
	Uploader  *upload.Uploader
	Verifier  *upload.Verifier
	Submitter Submitter
	Audit     *audit.Log
	Metrics   *Metrics
	Clock     clock.Clock
	Log       *zap.SugaredLogger
}

// A Request asks for one directory to be ingested.
type Request struct {
	Dir     string         // the directory to bag
	BagName string         // defaults to the base name of Dir
	Access  aptrust.Access // defaults to aptrust.Institution
}

// A Result describes what happened to one bag. Stage and Err are set if the
// bag did not make it through auditing. A failed DAEV submission only sets
// SubmitErr, since the bag is safely uploaded by then.
type Result struct {
	ID           aptrust.Identity
	Tar          string // local tar file
	Key          string // remote object key
	Environment  string
	Files        int
	Size         int64
	Stage        Stage
	Err          error
	SubmissionID string
	SubmitErr    error
}

// Name returns the bag name.
func (r Result) Name() string { return r.ID.String() }

// A Pipeline ingests directories. It may be used for several runs.
type Pipeline struct {
	Settings
	deps Deps
	log  *zap.SugaredLogger
}

// New returns a Pipeline using the given settings and components.
func New(cfg Settings, deps Deps) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	return &Pipeline{Settings: cfg, deps: deps, log: deps.Log}
}

// Metrics returns the counters updated by this pipeline.
func (p *Pipeline) Metrics() *Metrics { return p.deps.Metrics }

// a job is one bag to make, planned before anything is written
type job struct {
	id  aptrust.Identity
	src bagger.Source
	n   int
	sz  int64
}

// Run ingests the directory in req and returns a result for every bag
// attempted, in part order. An error with no results means nothing was
// attempted. If some bags failed, the results are returned together with
// ErrIncomplete.
func (p *Pipeline) Run(req Request) ([]Result, error) {
	dir, err := filepath.Abs(req.Dir)
	if err != nil {
		return nil, err
	}
	if req.BagName == "" {
		req.BagName = filepath.Base(dir)
	}
	if !validBagName(req.BagName) {
		return nil, errors.Wrapf(ErrInvalidBagName, "%q", req.BagName)
	}
	if req.Access == "" {
		req.Access = aptrust.Institution
	}
	access, err := aptrust.ParseAccess(string(req.Access))
	if err != nil {
		return nil, err
	}
	files, err := fileutil.List(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}
	jobs, err := p.plan(dir, req.BagName, files)
	if err != nil {
		return nil, err
	}
	p.log.Infow("ingesting",
		"source", dir,
		"bags", len(jobs),
		"files", len(files),
		"size", fileutil.TotalSize(files),
		"environment", p.Environment)

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(p.Workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			results[i] = p.ingest(dir, jobs[i], access)
			return nil
		})
	}
	g.Wait()

	for _, r := range results {
		if r.Err != nil {
			return results, ErrIncomplete
		}
	}
	return results, nil
}

// validBagName reports whether name can be used as a single path element.
func validBagName(name string) bool {
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return false
	}
	return !strings.ContainsRune(name, '/') && !strings.ContainsRune(name, filepath.Separator)
}

// plan decides how the files in dir are divided into bags and names every
// bag. Nothing is written, so any error here leaves no trace.
func (p *Pipeline) plan(dir, name string, files []fileutil.Entry) ([]job, error) {
	if len(files) == 0 {
		return nil, errors.Wrap(ErrNoFiles, dir)
	}
	total := fileutil.TotalSize(files)
	if total <= p.Threshold {
		id, err := aptrust.NewIdentity(p.Institution, name, 0, 0)
		if err != nil {
			return nil, err
		}
		return []job{{id: id, src: bagger.DirSource{Dir: dir}, n: len(files), sz: total}}, nil
	}
	if len(files) == 1 {
		if !p.AllowOversized {
			return nil, errors.Wrapf(ErrTooLarge, "%s is %d bytes", files[0].Path, files[0].Size)
		}
		id, err := aptrust.NewIdentity(p.Institution, name, 0, 0)
		if err != nil {
			return nil, err
		}
		return []job{{id: id, src: bagger.DirSource{Dir: dir}, n: 1, sz: total}}, nil
	}

	groups := aptrust.Pack(files, p.Threshold)
	var result []job
	for i, group := range groups {
		if group.Size() > p.Threshold && !p.AllowOversized {
			return nil, errors.Wrapf(ErrTooLarge, "%s is %d bytes", group[0].Path, group[0].Size)
		}
		id, err := aptrust.NewIdentity(p.Institution, name, i+1, len(groups))
		if err != nil {
			return nil, err
		}
		result = append(result, job{
			id:  id,
			src: bagger.FileSource{Root: dir, Files: group},
			n:   len(group),
			sz:  group.Size(),
		})
	}
	return result, nil
}

// ingest takes one bag through every stage, stopping at the first failure.
func (p *Pipeline) ingest(dir string, j job, access aptrust.Access) Result {
	r := Result{
		ID:          j.id,
		Environment: p.Environment,
		Files:       j.n,
		Size:        j.sz,
	}
	name := j.id.String()
	log := p.log.With("bag", name, "source", dir, "environment", p.Environment)
	m := p.deps.Metrics

	fail := func(stage Stage, err error) Result {
		r.Stage = stage
		r.Err = err
		m.Failures.WithLabelValues(string(stage)).Inc()
		log.Errorw("bag failed", "stage", stage, "error", err)
		raven.CaptureError(err, map[string]string{
			"bag":         name,
			"source":      dir,
			"environment": p.Environment,
			"stage":       string(stage),
		})
		return r
	}

	log.Infow("building bag", "files", j.n, "size", j.sz)
	bag, tarPath, err := p.deps.Builder.Build(j.id, j.src, access, name)
	if err != nil {
		return fail(StageBuild, err)
	}
	r.Tar = tarPath
	m.BagsBuilt.Inc()

	var rep upload.Reporter
	info, err := os.Stat(tarPath)
	if err != nil {
		return fail(StageUpload, err)
	}
	if p.ShowProgress {
		rep = upload.NewProgress(filepath.Base(tarPath), info.Size(), log)
	}
	log.Infow("uploading", "tar", tarPath, "size", info.Size())
	r.Key, err = p.deps.Uploader.Upload(tarPath, rep)
	if err != nil {
		return fail(StageUpload, err)
	}
	m.UploadBytes.Add(float64(info.Size()))

	if err := p.deps.Verifier.Verify(r.Key); err != nil {
		return fail(StageVerify, err)
	}
	m.BagsUploaded.WithLabelValues(p.Environment).Inc()
	uploaded := p.deps.Clock.Now()
	log.Infow("uploaded bag", "key", r.Key)

	err = p.deps.Audit.Append(audit.Entry{
		Time:        uploaded,
		Bag:         name,
		Tar:         tarPath,
		Source:      dir,
		Access:      string(access),
		Environment: p.Environment,
	})
	if err != nil {
		return fail(StageAudit, err)
	}

	if p.deps.Submitter != nil {
		p.submit(&r, bag, dir, uploaded, log)
	}

	if p.Cleanup {
		if err := p.deps.Builder.Clean(bag, tarPath); err != nil {
			log.Warnw("removing staged bag", "error", err)
		}
	}
	return r
}

// submit sends the assets in bag to DAEV. Failures are saved in r but do
// not fail the bag.
func (p *Pipeline) submit(r *Result, bag *bagit.Bag, dir string, at time.Time, log *zap.SugaredLogger) {
	m := p.deps.Metrics
	report := func(stage Stage, err error) {
		r.SubmitErr = err
		m.Submissions.WithLabelValues("failed").Inc()
		log.Errorw("submission failed", "stage", stage, "error", err)
		raven.CaptureError(err, map[string]string{
			"bag":         r.Name(),
			"source":      dir,
			"environment": p.Environment,
			"stage":       string(stage),
		})
	}
	assets, err := daev.BuildAssets(bag.Manifest(), dir, p.Host)
	if err != nil {
		report(StageAssets, err)
		return
	}
	r.SubmissionID, err = p.deps.Submitter.Submit(p.ServiceCode, at, assets)
	if err != nil {
		report(StageSubmit, err)
		return
	}
	m.Submissions.WithLabelValues("created").Inc()
	log.Infow("submitted assets", "assets", len(assets), "submission", r.SubmissionID)
}
