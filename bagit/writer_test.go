package bagit

import (
	"archive/tar"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/ndlib/aptbag/util"
)

func TestHumansize(t *testing.T) {
	var table = []struct {
		input  int64
		output string
	}{
		{-1, "-1 Bytes"},
		{0, "0 Bytes"},
		{10, "10 Bytes"},
		{999, "999 Bytes"},
		{1000, "1 KB"},
		{999999, "999 KB"}, // truncate
		{1000000, "1 MB"},
		{10000000, "10 MB"},
		{100000000, "100 MB"},
		{1000000000, "1 GB"},
		{10000000000, "10 GB"},
		{100000000000, "100 GB"},
		{1000000000000, "1 TB"},
	}

	for _, test := range table {
		out := humansize(test.input)
		if out != test.output {
			t.Errorf("Received %s, expected %s", out, test.output)
		}
	}
}

// stage makes a directory holding the given payload, ready for Make.
func stage(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "zzz-test-bag")
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRoundtrip(t *testing.T) {
	dir := stage(t, map[string]string{
		"hello":         "hello there",
		"data/nested":   "a payload dir named data",
		"sub/dir/empty": "",
	})
	b, err := Make(dir, map[string]string{"Contact-Name": "Nobody"})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.AddTagFile("aptrust-info.txt", []byte("Title: x\nAccess: Institution")); err != nil {
		t.Fatal(err)
	}

	payload := b.Payload()
	expected := []string{"data/nested", "hello", "sub/dir/empty"}
	if strings.Join(payload, ",") != strings.Join(expected, ",") {
		t.Errorf("payload is %v, expected %v", payload, expected)
	}
	if md5 := hex.EncodeToString(b.Manifest()["data/hello"].MD5); md5 != "161bc25962da8fed6d2f59922fb642aa" {
		t.Errorf("md5 of hello is %s", md5)
	}
	if oxum := b.Tags()["Payload-Oxum"]; oxum != "35.3" {
		t.Errorf("Payload-Oxum is %s, expected 35.3", oxum)
	}

	// now read it and see if it matches what was written
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if r.Tags()["Contact-Name"] != "Nobody" {
		t.Errorf("Read contact name %s, expected Nobody", r.Tags()["Contact-Name"])
	}
	if r.Tags()["BagIt-Version"] != Version {
		t.Errorf("Read version %s, expected %s", r.Tags()["BagIt-Version"], Version)
	}
	if _, ok := r.Manifest()["aptrust-info.txt"]; !ok {
		t.Error("aptrust-info.txt is not in the tag manifest")
	}
	if err := r.Verify(); err != nil {
		t.Errorf("Verify returned %s", err)
	}
}

func TestManifestIntegrity(t *testing.T) {
	dir := stage(t, map[string]string{"a": "aaa", "b/c": "ccc", "d": "ddd"})
	b, err := Make(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	for name, ck := range b.Manifest() {
		hw, err := util.HashFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			t.Fatal(err)
		}
		if got, ok := hw.CheckMD5(ck.MD5); !ok {
			t.Errorf("%s: md5 %x, manifest has %x", name, got, ck.MD5)
		}
		if got, ok := hw.CheckSHA256(ck.SHA256); !ok {
			t.Errorf("%s: sha256 %x, manifest has %x", name, got, ck.SHA256)
		}
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	dir := stage(t, map[string]string{"a": "original"})
	if _, err := Make(dir, nil); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "data", "a"), []byte("changed!"), 0644)
	b, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Verify(); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("got %v, expected ErrChecksumMismatch", err)
	}

	os.WriteFile(filepath.Join(dir, "data", "a"), []byte("original"), 0644)
	os.WriteFile(filepath.Join(dir, "data", "sneaky"), []byte("x"), 0644)
	if err := b.Verify(); !errors.Is(err, ErrExtraFile) {
		t.Errorf("got %v, expected ErrExtraFile", err)
	}
}

func TestAddTagFileRejectsPayload(t *testing.T) {
	b, err := Make(stage(t, map[string]string{"a": "a"}), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.AddTagFile("data/x", nil); err == nil {
		t.Error("expected an error")
	}
}

func TestTar(t *testing.T) {
	dir := stage(t, map[string]string{"hello": "hello there", "sub/x": "x"})
	if _, err := Make(dir, nil); err != nil {
		t.Fatal(err)
	}
	dest := dir + ".tar"
	if err := Tar(dir, dest); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var names []string
	contents := make(map[string]string)
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		names = append(names, hdr.Name)
		data, _ := io.ReadAll(tr)
		contents[hdr.Name] = string(data)
	}
	sort.Strings(names)
	for _, name := range names {
		if !strings.HasPrefix(name, "zzz-test-bag/") {
			t.Errorf("entry %s is not rooted at the bag name", name)
		}
	}
	if contents["zzz-test-bag/data/hello"] != "hello there" {
		t.Errorf("data/hello is %q", contents["zzz-test-bag/data/hello"])
	}
	for _, name := range []string{"zzz-test-bag/bagit.txt", "zzz-test-bag/manifest-md5.txt", "zzz-test-bag/data/sub/x"} {
		if _, ok := contents[name]; !ok {
			t.Errorf("missing entry %s in %v", name, names)
		}
	}

	// tar files are never overwritten
	if err := Tar(dir, dest); err == nil {
		t.Error("expected an error writing over an existing tar")
	}
}
