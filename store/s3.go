package store

import (
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	raven "github.com/getsentry/raven-go"
	"github.com/pkg/errors"
)

// A S3 store represents a store that is kept on AWS S3 storage, such as an
// APTrust receiving bucket.
// Do not change Bucket or Prefix concurrently with calls using the structure.
type S3 struct {
	svc      s3iface.S3API
	uploader *s3manager.Uploader
	Bucket   string
	Prefix   string
}

var _ Store = &S3{}

// NewS3 creates a new S3 store. It will use the given bucket and will prepend
// prefix to all keys. APTrust wants tar files at the top of the receiving
// bucket, so prefix is usually empty. The authorization method and
// credentials in the session are used for all accesses.
func NewS3(bucket, prefix string, awsSession *session.Session) *S3 {
	return newS3(bucket, prefix, s3.New(awsSession))
}

func newS3(bucket, prefix string, svc s3iface.S3API) *S3 {
	return &S3{
		svc:      svc,
		uploader: s3manager.NewUploaderWithClient(svc),
		Bucket:   bucket,
		Prefix:   prefix,
	}
}

// ListPrefix returns the keys in this store that have the given prefix.
// The argument prefix is added to the store's Prefix, and the store's Prefix
// is removed from the keys returned.
func (s *S3) ListPrefix(prefix string) ([]string, error) {
	var result []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(s.Prefix + prefix),
	}
	err := s.svc.ListObjectsV2Pages(input,
		func(page *s3.ListObjectsV2Output, lastpage bool) bool {
			for _, item := range page.Contents {
				result = append(result, strings.TrimPrefix(aws.StringValue(item.Key), s.Prefix))
			}
			return !lastpage
		})
	if err != nil {
		raven.CaptureError(err, map[string]string{"Bucket": s.Bucket, "Prefix": s.Prefix, "Pattern": prefix})
		return nil, errors.Wrapf(err, "listing s3://%s/%s%s", s.Bucket, s.Prefix, prefix)
	}
	return result, nil
}

// Put uploads the content of r to the given key. The s3manager uploader
// switches to a multipart upload for large objects, so there is no size
// limit beyond the 5 TB S3 imposes.
func (s *S3) Put(key string, r io.Reader) error {
	if key == "" {
		return ErrInvalidKey
	}
	_, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Prefix + key),
		Body:   r,
	})
	if err != nil {
		raven.CaptureError(err, map[string]string{"Bucket": s.Bucket, "Prefix": s.Prefix, "Key": key})
		return errors.Wrapf(err, "uploading s3://%s/%s%s", s.Bucket, s.Prefix, key)
	}
	return nil
}
