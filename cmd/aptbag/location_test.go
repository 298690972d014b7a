package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"

	"github.com/ndlib/aptbag/store"
)

const (
	typeMemory = iota
	typeFileSystem
	typeS3
	typeError
)

func TestSplitBucketPrefix(t *testing.T) {
	var table = []struct {
		location string
		bucket   string
		prefix   string
	}{
		{"", "", ""},
		{"bucket", "bucket", ""},
		{"/bucket", "bucket", ""},
		{"/bucket/", "bucket", ""},
		{"/bucket/prefix/", "bucket", "prefix/"},
		{"/bucket/prefix", "bucket", "prefix/"},
		{"/bucket/and/a/prefix", "bucket", "and/a/prefix/"},
	}

	for _, row := range table {
		bucket, prefix := splitBucketPrefix(row.location)
		if bucket != row.bucket {
			t.Error(row.location, "expected bucket", row.bucket, "received", bucket)
		}
		if prefix != row.prefix {
			t.Error(row.location, "expected prefix", row.prefix, "received", prefix)
		}
	}
}

func TestParseLocation(t *testing.T) {
	// keep the aws session from reading a real configuration
	isolateAWS(t)
	t.Setenv("AWS_REGION", "us-east-1")

	dir := t.TempDir()
	var table = []struct {
		location string
		typ      int
		bucket   string
		prefix   string
	}{
		{"", typeError, "", ""},
		{"memory:", typeMemory, "", ""},
		{filepath.Join(dir, "abs/path"), typeFileSystem, "", ""},
		{"file:" + filepath.Join(dir, "file/path"), typeFileSystem, "", ""},
		{"aptrust.receiving.test.nd.edu", typeS3, "aptrust.receiving.test.nd.edu", ""},
		{"s3:/bucket", typeS3, "bucket", ""},
		{"s3:/bucket/prefix", typeS3, "bucket", "prefix/"},
		{"s3://localhost:9000/bucket/prefix/", typeS3, "bucket", "prefix/"},
		{"s3://localhost:9000/", typeError, "", ""},
		{"blackpearl:/bucket", typeError, "", ""},
	}

	for _, row := range table {
		result, err := parselocation(row.location)
		if row.typ == typeError {
			if err == nil {
				t.Errorf("%q: expected an error, got %#v", row.location, result)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %s", row.location, err)
			continue
		}
		switch x := result.(type) {
		case *store.Memory:
			if row.typ != typeMemory {
				t.Errorf("%q: unexpected %#v", row.location, result)
			}
		case *store.FileSystem:
			if row.typ != typeFileSystem {
				t.Errorf("%q: unexpected %#v", row.location, result)
			}
		case *store.S3:
			if row.typ != typeS3 {
				t.Errorf("%q: unexpected %#v", row.location, result)
			}
			if x.Bucket != row.bucket {
				t.Error(row.location, "expected bucket", row.bucket, "received", x.Bucket)
			}
			if x.Prefix != row.prefix {
				t.Error(row.location, "expected prefix", row.prefix, "received", x.Prefix)
			}
		default:
			t.Errorf("%q: unexpected %#v", row.location, result)
		}
	}
}

// isolateAWS points the aws configuration files at an empty directory.
func isolateAWS(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_DEFAULT_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	return dir
}

func TestSessionReadsSharedConfig(t *testing.T) {
	dir := isolateAWS(t)
	err := os.WriteFile(filepath.Join(dir, "config"), []byte("[default]\nregion = us-west-2\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := newSession(&aws.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if r := aws.StringValue(sess.Config.Region); r != "us-west-2" {
		t.Errorf("expected region us-west-2, received %q", r)
	}

	// an explicit region still wins
	sess, err = newSession(&aws.Config{Region: aws.String("eu-west-1")})
	if err != nil {
		t.Fatal(err)
	}
	if r := aws.StringValue(sess.Config.Region); r != "eu-west-1" {
		t.Errorf("expected region eu-west-1, received %q", r)
	}
}
