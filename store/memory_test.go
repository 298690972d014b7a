package store

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
)

func TestMemory(t *testing.T) {
	ms := NewMemory()
	if err := ms.Put("b", strings.NewReader("bee")); err != nil {
		t.Fatal(err)
	}
	if err := ms.Put("a", strings.NewReader("ay")); err != nil {
		t.Fatal(err)
	}
	if err := ms.Put("a", strings.NewReader("again")); err != ErrKeyExists {
		t.Errorf("got %v, expected ErrKeyExists", err)
	}
	keys, _ := ms.ListPrefix("")
	if strings.Join(keys, ",") != "a,b" {
		t.Errorf("keys are %v", keys)
	}
	if v, ok := ms.Get("b"); !ok || string(v) != "bee" {
		t.Errorf("Get(b) = %q, %v", v, ok)
	}
}

func TestMemoryReadError(t *testing.T) {
	ms := NewMemory()
	boom := errors.New("boom")
	err := ms.Put("x", iotest.ErrReader(boom))
	if err != boom {
		t.Errorf("got %v, expected boom", err)
	}
	if _, ok := ms.Get("x"); ok {
		t.Error("failed Put left an entry behind")
	}
}
