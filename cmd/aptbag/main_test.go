package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ndlib/aptbag/audit"
)

// writeSetup makes a source directory and a configuration file sending bags
// to a memory store. It returns the directory and the configuration path.
func writeSetup(t *testing.T) (string, string, string) {
	t.Helper()
	base := t.TempDir()
	src := filepath.Join(base, "My.Files")
	os.MkdirAll(src, 0755)
	os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello there"), 0644)
	auditFile := filepath.Join(base, "audit.log")
	conf := fmt.Sprintf(`
institution: nd.edu
bags_base_dir: %s
audit_file: %s
log_file: %s
metrics_file: %s
test:
  receiving_bucket: "memory:"
production:
  receiving_bucket: "blackpearl:/nope"
`,
		filepath.Join(base, "bags"),
		auditFile,
		filepath.Join(base, "aptbag.log"),
		filepath.Join(base, "aptbag.prom"))
	confPath := filepath.Join(base, "config.yml")
	if err := os.WriteFile(confPath, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}
	return src, confPath, auditFile
}

func TestRun(t *testing.T) {
	src, conf, auditFile := writeSetup(t)
	code := run([]string{"-c", conf, "--access", "restricted", src})
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	entries, err := audit.ReadFile(auditFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d audit entries", len(entries))
	}
	e := entries[0]
	if e.Bag != "nd.edu.my_files" || e.Access != "restricted" || e.Environment != "test" {
		t.Errorf("audit entry %+v", e)
	}
	metrics, err := os.ReadFile(filepath.Join(filepath.Dir(conf), "aptbag.prom"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(metrics), "aptbag_bags_built_total 1") {
		t.Errorf("metrics file is\n%s", metrics)
	}
}

func TestRunFailures(t *testing.T) {
	src, conf, _ := writeSetup(t)
	var table = [][]string{
		{},
		{"-c", conf},
		{"-c", conf, "-a", "public", src},
		{"-c", conf, filepath.Join(src, "missing")},
		{"-c", filepath.Join(src, "none.yml"), src},
		{"-c", conf, "--production", src},
		{"--no-such-flag", src},
	}
	for _, args := range table {
		if code := run(args); code != 1 {
			t.Errorf("run(%v) = %d, expected 1", args, code)
		}
	}
}
