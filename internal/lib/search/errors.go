package search

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is the umbrella for query validation failures; both
	// specific sentinels wrap it so callers can match the class with one
	// errors.Is check
	ErrInvalidQuery = errors.New("invalid query")

	// ErrQueryTooShort rejects queries below the configured minimum length
	ErrQueryTooShort = fmt.Errorf("%w: query too short", ErrInvalidQuery)

	// ErrSpamQuery rejects queries with 10 or more identical consecutive characters
	ErrSpamQuery = fmt.Errorf("%w: query looks like spam", ErrInvalidQuery)
)

// ErrorKind classifies provider failures
type ErrorKind int

const (
	KindRateLimited ErrorKind = iota
	KindServerError
	KindNotFound
	KindNetwork
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ProviderError is a classified failure from a place lookup call. The
// aggregator tolerates these per call; they surface in Outcome.Failures.
type ProviderError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// spamRunLength is the shortest run of identical characters treated as spam
const spamRunLength = 10

// ValidateQuery applies the minimum-length and spam-pattern checks that gate
// every aggregation before any network call is issued
func ValidateQuery(query string, minLength int) error {
	runes := []rune(query)
	if len(runes) < minLength {
		return fmt.Errorf("%w: need at least %d characters", ErrQueryTooShort, minLength)
	}

	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= spamRunLength {
				return ErrSpamQuery
			}
		} else {
			run = 1
		}
	}
	return nil
}
