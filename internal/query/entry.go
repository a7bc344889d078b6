package query

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a cache entry or a mutation.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is the stored state for one key. Entries are replaced wholesale on
// every transition; Data survives a failed refetch.
type Entry struct {
	Key           Key
	Status        Status
	Data          any
	Err           error
	LastFetchedAt time.Time

	// Seq is the stamp of the fetch that last wrote this entry.
	Seq uint64
}

// HasData reports whether a fetch has ever succeeded for the entry.
func (e Entry) HasData() bool {
	return !e.LastFetchedAt.IsZero()
}

// FetchError is a failed read, tagged with the key it was for.
type FetchError struct {
	Key Key
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// TypeMismatchError means a key was read with a different result type than
// the one it was fetched with.
type TypeMismatchError struct {
	Key  Key
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cached value for %s is %s, not %s", e.Key, e.Got, e.Want)
}
