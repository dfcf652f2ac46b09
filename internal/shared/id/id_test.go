package id

import (
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsCarryTheirPrefix(t *testing.T) {
	assert.True(t, Valid(NewBuildID().String(), BuildPrefix))
	assert.True(t, Valid(NewSessionID().String(), SessionPrefix))
	assert.True(t, Valid(NewRequestID().String(), RequestPrefix))

	assert.False(t, Valid(NewSessionID().String(), BuildPrefix))
	for _, s := range []string{"", "build_", "build_nope", "build_zzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		assert.False(t, Valid(s, BuildPrefix), s)
	}
}

func TestIDsSortInMintOrder(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = NewSessionID().String()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestCreated(t *testing.T) {
	before := time.Now().Truncate(time.Millisecond)
	b := NewBuildID()

	ts, err := Created(b.String(), BuildPrefix)
	require.NoError(t, err)
	assert.False(t, ts.Before(before))
	assert.False(t, ts.After(time.Now()))

	_, err = Created("sess_x", BuildPrefix)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestConcurrentMintingIsUnique(t *testing.T) {
	const workers, per = 20, 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[BuildID]struct{}, workers*per)
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range per {
				b := NewBuildID()
				mu.Lock()
				seen[b] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*per)
	for b := range seen {
		assert.True(t, strings.HasPrefix(string(b), "build_"))
		break
	}
}
