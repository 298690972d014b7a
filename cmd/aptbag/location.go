package main

import (
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"

	"github.com/ndlib/aptbag/store"
)

// splitBucketPrefix separates the bucket name from a prefix, if any. The
// prefix returned is either empty or ends with a slash.
//
// examples:
//
//	"" -> ("", "")
//	"bucket" -> ("bucket", "")
//	"/bucket/and/a/prefix" -> ("bucket", "and/a/prefix/")
func splitBucketPrefix(location string) (bucket, prefix string) {
	if location == "" {
		return
	}
	location = strings.TrimPrefix(location, "/")
	v := strings.SplitN(location, "/", 2)
	bucket = v[0]
	if len(v) > 1 {
		prefix = path.Clean(v[1])
		if prefix == "." {
			prefix = ""
		}
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}
	return
}

// parselocation creates the store a receiving bucket setting names.
//
//	"memory:"                         an in-memory store, for dry runs
//	"file:/path" or "some/path"       a directory on the local disk
//	"bucket.name" or "s3:/bucket"     an S3 bucket, using the default credentials
//	"s3://host:port/bucket/prefix/"   an S3 compatible server such as minio
//
// A bare name with no slash is taken to be a bucket.
func parselocation(location string) (store.Store, error) {
	if location == "" {
		return nil, errors.New("empty location")
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, errors.Wrap(err, location)
	}
	switch u.Scheme {
	case "memory":
		return store.NewMemory(), nil
	case "":
		if !strings.Contains(location, "/") {
			return newS3(location, "", &aws.Config{})
		}
		fallthrough
	case "file":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		if err := os.MkdirAll(p, 0755); err != nil {
			return nil, err
		}
		return store.NewFileSystem(p), nil
	case "s3":
		conf := &aws.Config{}
		if u.Host != "" {
			conf.Endpoint = aws.String(u.Host)
			conf.Region = aws.String("us-east-1")
			// disable SSL for local development
			if strings.Contains(u.Host, "localhost") {
				conf.DisableSSL = aws.Bool(true)
				conf.S3ForcePathStyle = aws.Bool(true)
			}
		}
		bucket, prefix := splitBucketPrefix(u.Path)
		return newS3(bucket, prefix, conf)
	}
	return nil, errors.Errorf("unknown location scheme %q", u.Scheme)
}

func newS3(bucket, prefix string, conf *aws.Config) (store.Store, error) {
	if bucket == "" {
		return nil, errors.New("no bucket name")
	}
	sess, err := newSession(conf)
	if err != nil {
		return nil, err
	}
	return store.NewS3(bucket, prefix, sess), nil
}

// newSession returns an AWS session which also reads the region and profile
// settings in ~/.aws/config, the way the aws command line tool does.
func newSession(conf *aws.Config) (*session.Session, error) {
	return session.NewSessionWithOptions(session.Options{
		Config:            *conf,
		SharedConfigState: session.SharedConfigEnable,
	})
}
