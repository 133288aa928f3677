package session_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/session/core/session"
)

// TestReplaceIfEqual_ConcurrentCounter hammers the compare-and-swap primitive
// from many goroutines. Every increment must land exactly once: with plain
// Get/Set the interleaved read-modify-write sequences would lose updates.
// Each successful swap installs a distinct value 1..10000, so the installed
// values must sum to the closed form 10000*10001/2.
func TestReplaceIfEqual_ConcurrentCounter(t *testing.T) {
	t.Parallel()

	const (
		workers    = 50
		increments = 200
	)

	sess, err := session.New(session.ExpireOnSessionEnd())
	require.NoError(t, err)

	var installedSum atomic.Int64

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range increments {
				for {
					var current int
					found, err := sess.Get("counter", &current)
					if err != nil {
						t.Error(err)
						return
					}

					next := current + 1
					var (
						swapped bool
						serr    error
					)
					if !found {
						swapped, serr = sess.ReplaceIfEqual("counter", nil, 1)
						next = 1
					} else {
						swapped, serr = sess.ReplaceIfEqual("counter", current, next)
					}
					if serr != nil {
						t.Error(serr)
						return
					}
					if swapped {
						installedSum.Add(int64(next))
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	var total int
	found, err := sess.Get("counter", &total)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, workers*increments, total)
	assert.Equal(t, int64(50_005_000), installedSum.Load(), "no increment may be lost or applied twice")
}

// TestSession_ConcurrentMixedAccess exercises the handle under concurrent
// reads, writes, and flag queries; the race detector does the assertions.
func TestSession_ConcurrentMixedAccess(t *testing.T) {
	t.Parallel()

	sess, err := session.New(session.ExpireOnSessionEnd())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				switch i % 4 {
				case 0:
					_, _ = sess.Set("k", i)
				case 1:
					var v int
					_, _ = sess.Get("k", &v)
				case 2:
					_ = sess.IsModified()
					_ = sess.IsEmpty()
				case 3:
					_ = sess.Snapshot(time.Now())
				}
			}
		}()
	}
	wg.Wait()
}
