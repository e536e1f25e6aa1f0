package loopdetect

import (
	"errors"
	"fmt"
	"time"
)

// Reason identifies why a traversal attempt was rejected.
type Reason string

const (
	ReasonConcurrentAccess Reason = "concurrent_access"
	ReasonTooSoon          Reason = "too_soon"
	ReasonTooFrequent      Reason = "too_frequent"
	ReasonPatternCycle     Reason = "pattern_cycle"
)

// Reason sentinels for errors.Is matching.
var (
	ErrConcurrentAccess = &LoopError{Reason: ReasonConcurrentAccess}
	ErrTooSoon          = &LoopError{Reason: ReasonTooSoon}
	ErrTooFrequent      = &LoopError{Reason: ReasonTooFrequent}
	ErrPatternCycle     = &LoopError{Reason: ReasonPatternCycle}
)

// ErrUnknownHandle is returned by CompleteAccess when the handle does not
// match an open record (double completion or a foreign handle). This is a
// caller logic error, never swallowed.
var ErrUnknownHandle = errors.New("loopdetect: no open access for handle")

// LoopError is a synchronous traversal rejection. It is returned before any
// remote I/O happens and is always locally recoverable: the caller skips the
// path for this round.
type LoopError struct {
	Reason  Reason
	Path    string
	Elapsed time.Duration // set for too_soon
	Count   int           // set for too_frequent
}

func (e *LoopError) Error() string {
	switch e.Reason {
	case ReasonConcurrentAccess:
		return fmt.Sprintf("concurrent access in progress for %s", e.Path)
	case ReasonTooSoon:
		return fmt.Sprintf("path %s rescanned too soon (%s since last scan)", e.Path, e.Elapsed)
	case ReasonTooFrequent:
		return fmt.Sprintf("path %s accessed too frequently (%d times in window)", e.Path, e.Count)
	case ReasonPatternCycle:
		return fmt.Sprintf("cyclic access pattern detected for %s", e.Path)
	}
	return fmt.Sprintf("loop detected for %s", e.Path)
}

// Is matches any LoopError with the same reason, so callers can test
// errors.Is(err, loopdetect.ErrTooSoon).
func (e *LoopError) Is(target error) bool {
	t, ok := target.(*LoopError)
	return ok && t.Reason == e.Reason
}
