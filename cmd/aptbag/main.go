// Command aptbag bags a directory and sends it to an APTrust receiving
// bucket. Directories larger than the configured threshold are split into
// a multipart bag.
//
// Usage:
//
//	aptbag [flags] <directory>
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/getsentry/raven-go"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ndlib/aptbag/aptrust"
	"github.com/ndlib/aptbag/audit"
	"github.com/ndlib/aptbag/bagger"
	"github.com/ndlib/aptbag/config"
	"github.com/ndlib/aptbag/daev"
	"github.com/ndlib/aptbag/ingest"
	"github.com/ndlib/aptbag/upload"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func usage(flags *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: aptbag [flags] <directory>\n\nBag a directory and send it to an APTrust S3 receiving bucket.\n\n")
	flags.PrintDefaults()
}

// run returns the exit code: 0 if every bag was uploaded, 1 otherwise.
func run(args []string) int {
	flags := pflag.NewFlagSet("aptbag", pflag.ContinueOnError)
	var (
		bagName    = flags.StringP("bag", "b", "", "name to give the bag (default is the directory name)")
		access     = flags.StringP("access", "a", string(aptrust.Institution), "APTrust access level: consortia, institution, or restricted")
		production = flags.BoolP("production", "p", false, "ingest to the production instance")
		verbose    = flags.BoolP("verbose", "v", false, "log debugging information and upload progress")
		configFile = flags.StringP("config", "c", "config.yml", "configuration file, YAML or TOML")
	)
	flags.Usage = func() { usage(flags) }
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 1
	}
	if flags.NArg() != 1 {
		usage(flags)
		return 1
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log, err := newLogger(cfg.LogFile, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()
	log = log.With("run", uuid.New().String())

	if cfg.SentryDSN != "" {
		if err := raven.SetDSN(cfg.SentryDSN); err != nil {
			log.Warnw("setting sentry dsn", "error", err)
		}
	}

	lvl, err := aptrust.ParseAccess(*access)
	if err != nil {
		log.Errorw("invalid access level", "access", *access)
		return 1
	}
	dir := flags.Arg(0)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		log.Errorw("the supplied directory does not exist", "directory", dir)
		return 1
	}
	dir, _ = filepath.Abs(dir)

	envName := config.Test
	if *production {
		envName = config.Production
	}
	env, _ := cfg.Env(envName)
	s, err := parselocation(env.ReceivingBucket)
	if err != nil {
		log.Errorw("opening receiving bucket", "location", env.ReceivingBucket, "error", err)
		return 1
	}

	var submitter ingest.Submitter
	if env.DAEVBasePath != "" {
		client, err := daev.New(env.DAEVBasePath)
		if err != nil {
			log.Errorw("connecting to DAEV", "url", env.DAEVBasePath, "error", err)
			raven.CaptureError(err, map[string]string{"environment": envName})
			return 1
		}
		submitter = client
	}

	host, _ := os.Hostname()
	verifier := upload.NewVerifier(s, log)
	verifier.Attempts = cfg.VerifyAttempts
	verifier.Interval = cfg.VerifyInterval.Duration
	builder := bagger.NewBuilder(cfg.BagsBaseDir, log)
	builder.Organization = cfg.Institution

	p := ingest.New(ingest.Settings{
		Institution:    cfg.Institution,
		Environment:    envName,
		Threshold:      cfg.MultiThreshold,
		Workers:        cfg.Workers,
		AllowOversized: cfg.AllowOversized,
		Cleanup:        cfg.Cleanup,
		ServiceCode:    cfg.ServiceCode,
		Host:           host,
		ShowProgress:   *verbose,
	}, ingest.Deps{
		Builder:   builder,
		Uploader:  upload.NewUploader(s, log),
		Verifier:  verifier,
		Submitter: submitter,
		Audit:     audit.Open(cfg.AuditFile),
		Log:       log,
	})

	results, err := p.Run(ingest.Request{
		Dir:     dir,
		BagName: *bagName,
		Access:  lvl,
	})
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(os.Stderr, "%s: failed at %s: %v\n", r.Name(), r.Stage, r.Err)
		case r.SubmitErr != nil:
			fmt.Fprintf(os.Stderr, "%s: uploaded, DAEV submission failed: %v\n", r.Name(), r.SubmitErr)
		default:
			fmt.Printf("%s: uploaded to %s\n", r.Name(), r.Key)
		}
	}
	if cfg.MetricsFile != "" {
		if err := p.Metrics().WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warnw("writing metrics", "file", cfg.MetricsFile, "error", err)
		}
	}
	if err != nil {
		log.Errorw("ingest failed", "source", dir, "environment", envName, "error", err)
		if results == nil {
			raven.CaptureError(err, map[string]string{"source": dir, "environment": envName})
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	log.Infow("ingest complete", "source", dir, "environment", envName, "bags", len(results))
	return 0
}

// newLogger returns a JSON logger writing to logfile, or to stderr if
// logfile is empty.
func newLogger(logfile string, verbose bool) (*zap.SugaredLogger, error) {
	lvl := zap.InfoLevel
	if verbose {
		lvl = zap.DebugLevel
	}
	out := "stderr"
	if logfile != "" {
		out = logfile
	}
	zcfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		DisableStacktrace: true,
		Encoding:          "json",
		EncoderConfig:     zap.NewProductionEncoderConfig(),
		OutputPaths:       []string{out},
		ErrorOutputPaths:  []string{"stderr"},
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
