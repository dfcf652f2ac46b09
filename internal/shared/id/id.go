// Package id mints the identifiers used across the playground. Every ID is
// "<kind>_<ULID>", so build and session IDs sort by creation time and read
// well in logs.
package id

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// BuildID identifies one bundling run
type BuildID string

// SessionID identifies a playground view
type SessionID string

// RequestID identifies an API request or trace span
type RequestID string

const (
	BuildPrefix   = "build"
	SessionPrefix = "sess"
	RequestPrefix = "req"
)

// ErrMalformed is returned for strings that are not "<kind>_<ULID>"
var ErrMalformed = errors.New("malformed id")

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// mint returns a prefixed ULID. Monotonic entropy keeps IDs minted within
// the same millisecond in order.
func mint(prefix string) string {
	mu.Lock()
	u := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	mu.Unlock()
	return prefix + "_" + u.String()
}

func NewBuildID() BuildID          { return BuildID(mint(BuildPrefix)) }
func NewSessionID() SessionID      { return SessionID(mint(SessionPrefix)) }
func NewRequestID() RequestID      { return RequestID(mint(RequestPrefix)) }
func (b BuildID) String() string   { return string(b) }
func (s SessionID) String() string { return string(s) }
func (r RequestID) String() string { return string(r) }

// Valid reports whether s is a well-formed ID of the given kind
func Valid(s, prefix string) bool {
	_, err := parse(s, prefix)
	return err == nil
}

// Created returns the time an ID of the given kind was minted
func Created(s, prefix string) (time.Time, error) {
	u, err := parse(s, prefix)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}

func parse(s, prefix string) (ulid.ULID, error) {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	if !ok {
		return ulid.ULID{}, ErrMalformed
	}
	u, err := ulid.ParseStrict(rest)
	if err != nil {
		return ulid.ULID{}, errors.Join(ErrMalformed, err)
	}
	return u, nil
}
