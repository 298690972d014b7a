package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestFileSystemPut(t *testing.T) {
	root := t.TempDir()
	s := NewFileSystem(root)
	if err := s.Put("nd.bag.tar", strings.NewReader("tar data")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(root, "nd.bag.tar"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "tar data" {
		t.Errorf("read %q", data)
	}
	err = s.Put("nd.bag.tar", strings.NewReader("again"))
	if err != ErrKeyExists {
		t.Errorf("got %v, expected ErrKeyExists", err)
	}
}

func TestFileSystemKeys(t *testing.T) {
	s := NewFileSystem(t.TempDir())
	var table = []struct {
		key string
		ok  bool
	}{
		{"abc", true},
		{"nd.my_dir.b01.of02.tar", true},
		{"", false},
		{"..", false},
		{"a/b", false},
		{"tab\there", false},
		{scratchdir, false},
		{string([]byte{0xff, 0xfe}), false},
	}
	for _, row := range table {
		err := s.Put(row.key, strings.NewReader("x"))
		if (err == nil) != row.ok {
			t.Errorf("Put(%q) returned %v", row.key, err)
		}
		if !row.ok && !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) returned %v, expected ErrInvalidKey", row.key, err)
		}
	}
}

func TestFileSystemListPrefix(t *testing.T) {
	s := NewFileSystem(t.TempDir())
	for _, key := range []string{"inst.b.tar", "inst.a.tar", "other.tar"} {
		if err := s.Put(key, strings.NewReader(key)); err != nil {
			t.Fatal(err)
		}
	}
	var table = []struct {
		prefix   string
		expected string
	}{
		{"", "inst.a.tar,inst.b.tar,other.tar"},
		{"inst.", "inst.a.tar,inst.b.tar"},
		{"inst.a.tar", "inst.a.tar"},
		{"zzz", ""},
	}
	for _, row := range table {
		keys, err := s.ListPrefix(row.prefix)
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Join(keys, ","); got != row.expected {
			t.Errorf("ListPrefix(%q) = %s, expected %s", row.prefix, got, row.expected)
		}
	}
}
