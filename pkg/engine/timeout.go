package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/solidprobe/pkg/catalog"
	"github.com/sirupsen/logrus"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned by Evaluate when a newer evaluation started
// before this one finished.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

// WithTimeout bounds every evaluation by d. Non-positive values keep
// EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// evalResult carries one evaluation out of its goroutine.
type evalResult struct {
	catalog *catalog.Catalog
	errors  []EvalError
	err     error
}

// wait blocks until the evaluation of generation gen reports on ch or the
// engine timeout passes. A result whose generation is no longer current is
// dropped, since its catalog belongs to a script the caller has replaced.
// On timeout the goroutine keeps running and its result is discarded.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*catalog.Catalog, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()

		if gen != current {
			e.log.WithFields(logrus.Fields{
				"generation": gen,
				"current":    current,
			}).Debug("discarding stale evaluation")
			return nil, nil, ErrSuperseded
		}
		if res.err != nil {
			e.log.WithError(res.err).WithField("generation", gen).Warn("evaluation failed")
		}
		return res.catalog, res.errors, res.err

	case <-timer.C:
		e.log.WithFields(logrus.Fields{
			"generation": gen,
			"timeout":    e.timeout,
		}).Warn("evaluation timed out")
		return nil, nil, fmt.Errorf("evaluation timed out after %s", e.timeout)
	}
}
