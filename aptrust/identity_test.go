package aptrust

import (
	"testing"

	"github.com/pkg/errors"
)

func TestName(t *testing.T) {
	var table = []struct {
		dir         string
		part, total int
		name        string
		err         error
	}{
		{"My.Dir", 0, 0, "inst.my_dir", nil},
		{"My.Dir", 2, 10, "inst.my_dir.b02.of10", nil},
		{"My.Dir", 10, 10, "inst.my_dir.b10.of10", nil},
		{"a.b.c", 1, 3, "inst.a_b_c.b1.of3", nil},
		{"Photos", 7, 120, "inst.photos.b007.of120", nil},
		{"Photos", 999, 999, "inst.photos.b999.of999", nil},
		{"My.Dir", 11, 10, "", ErrInvalidPartNumbering},
		{"My.Dir", 0, 10, "", ErrInvalidPartNumbering},
		{"My.Dir", 3, 0, "", ErrInvalidPartNumbering},
		{"My.Dir", 1, 1000, "", ErrTooManyParts},
	}
	for _, row := range table {
		name, err := Name(row.dir, "inst", row.part, row.total)
		if !errors.Is(err, row.err) || (row.err == nil && err != nil) {
			t.Errorf("Name(%q, %d, %d) error %v, expected %v", row.dir, row.part, row.total, err, row.err)
		}
		if name != row.name {
			t.Errorf("Name(%q, %d, %d) = %q, expected %q", row.dir, row.part, row.total, name, row.name)
		}
	}
}

func TestIdentity(t *testing.T) {
	id, err := NewIdentity("nd.edu", "Box.12", 3, 12)
	if err != nil {
		t.Fatal(err)
	}
	if !id.Multipart() {
		t.Error("expected a multipart identity")
	}
	if s := id.String(); s != "nd.edu.box_12.b03.of12" {
		t.Errorf("got %s", s)
	}
	single := Identity{Institution: "nd.edu", Base: "Box.12"}
	if single.Multipart() || single.String() != "nd.edu.box_12" {
		t.Errorf("single bag identity renders as %s", single)
	}
}

func TestParseAccess(t *testing.T) {
	var table = []struct {
		input string
		title string
		ok    bool
	}{
		{"consortia", "Consortia", true},
		{"Institution", "Institution", true},
		{"RESTRICTED", "Restricted", true},
		{"public", "", false},
		{"", "", false},
	}
	for _, row := range table {
		a, err := ParseAccess(row.input)
		if (err == nil) != row.ok {
			t.Errorf("ParseAccess(%q) error %v", row.input, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidAccessLevel) {
			t.Errorf("ParseAccess(%q) error %v, expected ErrInvalidAccessLevel", row.input, err)
		}
		if a.Title() != row.title {
			t.Errorf("ParseAccess(%q).Title() = %q, expected %q", row.input, a.Title(), row.title)
		}
	}
}

func TestInfo(t *testing.T) {
	got := string(Info("nd.edu.thing", Consortia))
	if got != "Title: nd.edu.thing\nAccess: Consortia\n" {
		t.Errorf("got %q", got)
	}
}
