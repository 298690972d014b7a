// Package daev is a client for DAEV, the service which tracks preservation
// assets, packages and where they were sent. It only knows how to record
// new submission packages.
package daev

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antonholmquist/jason"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrServiceUnavailable means the DAEV server did not answer the
	// health check made when the client was created.
	ErrServiceUnavailable = errors.New("DAEV service unavailable")

	// ErrSubmissionFailed is matched by every *SubmissionError.
	ErrSubmissionFailed = errors.New("submission package not created")

	// ErrMissingServiceCode and ErrMissingSubmissionTime are returned
	// before anything is sent when Submit is missing an argument.
	ErrMissingServiceCode    = errors.New("missing service code")
	ErrMissingSubmissionTime = errors.New("missing submission time")
)

// A SubmissionError holds the response DAEV gave to a rejected submission.
type SubmissionError struct {
	Status int
	Body   string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission package not created: received status %d: %s", e.Status, e.Body)
}

// Is makes errors.Is(err, ErrSubmissionFailed) true for every *SubmissionError.
func (e *SubmissionError) Is(target error) bool { return target == ErrSubmissionFailed }

// A Client talks to one DAEV server. It can be shared between goroutines.
type Client struct {
	baseURL string
	client  *http.Client
}

// An Option configures a Client.
type Option func(*Client)

// WithHTTPClient makes the Client use hc for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New returns a client for the DAEV server at baseURL. The server is checked
// first, and ErrServiceUnavailable is returned if it does not answer with a
// 200.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 1 * time.Minute, // arbitrary
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	resp, err := c.client.Get(c.baseURL)
	if err != nil {
		return nil, errors.Wrapf(ErrServiceUnavailable, "%s: %v", baseURL, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrServiceUnavailable, "%s: received status %d", baseURL, resp.StatusCode)
	}
	return c, nil
}

// Submit records a submission package made at the given time and holding
// the given assets. It returns the id DAEV assigned to the package, which
// may be empty if the response did not include one.
func (c *Client) Submit(serviceCode string, submitted time.Time, assets []Asset) (string, error) {
	if serviceCode == "" {
		return "", ErrMissingServiceCode
	}
	if submitted.IsZero() {
		return "", ErrMissingSubmissionTime
	}
	doc := newSubmissionDocument(serviceCode, submitted.Format(time.RFC3339), assets)
	buf, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", c.baseURL+"/submission_packages", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/vnd.api+json")
	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("X-Request-Id", uuid.New().String())
	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "posting submission package")
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return "", &SubmissionError{Status: resp.StatusCode, Body: string(body)}
	}
	v, err := jason.NewObjectFromBytes(body)
	if err != nil {
		// created, but nothing we can read an id from
		return "", nil
	}
	id, _ := v.GetString("data", "id")
	return id, nil
}
