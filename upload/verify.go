package upload

import (
	"time"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ndlib/aptbag/store"
)

// ErrVerificationTimeout means an uploaded object never showed up in the
// store listing.
var ErrVerificationTimeout = errors.New("upload not found in store")

// Defaults for a Verifier.
const (
	DefaultAttempts = 5
	DefaultInterval = 2 * time.Second
)

// A Verifier checks that uploaded objects are visible in a store. Object
// stores may take a while before a new object appears in listings, so the
// store is polled.
type Verifier struct {
	store    store.Lister
	Attempts int           // total number of listings to try
	Interval time.Duration // wait between listings
	Clock    clock.Clock
	log      *zap.SugaredLogger
}

// NewVerifier returns a Verifier for s using the default attempts and
// interval and the real clock.
func NewVerifier(s store.Lister, log *zap.SugaredLogger) *Verifier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Verifier{
		store:    s,
		Attempts: DefaultAttempts,
		Interval: DefaultInterval,
		Clock:    clock.New(),
		log:      log,
	}
}

// Verify returns nil once key is found in the store. It lists the store up
// to Attempts times, sleeping Interval between tries, and then gives up with
// ErrVerificationTimeout. A failed listing counts as a miss.
func (v *Verifier) Verify(key string) error {
	attempts := v.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		keys, err := v.store.ListPrefix(key)
		if err != nil {
			v.log.Warnw("listing store", "key", key, "attempt", i, "error", err)
		}
		for _, k := range keys {
			if k == key {
				v.log.Debugw("upload verified", "key", key, "attempt", i)
				return nil
			}
		}
		if i < attempts {
			v.Clock.Sleep(v.Interval)
		}
	}
	return errors.Wrapf(ErrVerificationTimeout, "%s after %d attempts", key, attempts)
}
