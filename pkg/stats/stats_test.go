package stats

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"carrent/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecorder_Record(t *testing.T) {
	m := NewMemoryRecorder()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Record(ctx, Event{Kind: KindBooked})
		}()
	}
	wg.Wait()

	require.NoError(t, m.Record(ctx, Event{Kind: KindCompensated, Count: 4}))
	require.NoError(t, m.Record(ctx, Event{Kind: KindSourceFailed, Source: "delimobil"}))

	assert.Equal(t, int64(50), m.Count(KindBooked))
	assert.Equal(t, map[string]int64{
		"booked":        50,
		"compensated":   4,
		"source_failed": 1,
	}, m.Snapshot())
	assert.Equal(t, map[string]int64{"delimobil": 1}, m.FailedSources())
}

type failingRecorder struct {
	err error
}

func (f failingRecorder) Record(context.Context, Event) error { return f.err }

func TestTee(t *testing.T) {
	first, second := NewMemoryRecorder(), NewMemoryRecorder()
	boom := errors.New("boom")

	rec := Tee(first, nil, failingRecorder{err: boom}, second)
	err := rec.Record(context.Background(), Event{Kind: KindFiltered})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), first.Count(KindFiltered))
	assert.Equal(t, int64(1), second.Count(KindFiltered))
}

func TestTrack_SwallowsErrors(t *testing.T) {
	Track(context.Background(), failingRecorder{err: errors.New("down")}, logger.Discard(), Event{Kind: KindDropped})
	Track(context.Background(), nil, nil, Event{Kind: KindDropped})
	Track(context.Background(), Nop(), nil, Event{Kind: KindDropped})
}

func TestRedisRecorder_NilClient(t *testing.T) {
	var nilRecorder *RedisRecorder
	assert.NoError(t, nilRecorder.Record(context.Background(), Event{Kind: KindBooked}))

	r := NewRedisRecorder(nil, WithPrefix(":custom:"), WithTTL(time.Minute))
	assert.Equal(t, "custom", r.Prefix())
	assert.NoError(t, r.Record(context.Background(), Event{Kind: KindBooked}))

	totals, err := r.Totals(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, totals)
}

func TestRedisRecorder_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	memory := NewMemoryRecorder()
	rec := Tee(memory, NewRedisRecorder(rdb))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := rec.Record(ctx, Event{Kind: KindAggregated})
	assert.Error(t, err)
	assert.Equal(t, int64(1), memory.Count(KindAggregated), "memory totals must not depend on redis")
}

// silentServer accepts connections and never answers them.
func silentServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestRedisRecorder_RecordTimeoutBoundsStalls(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:                  silentServer(t),
		MaxRetries:            -1,
		ReadTimeout:           10 * time.Second,
		ContextTimeoutEnabled: true,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := NewRedisRecorder(rdb, WithRecordTimeout(50*time.Millisecond))

	start := time.Now()
	err := rec.Record(context.Background(), Event{Kind: KindBooked})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "a silent redis must not stall the caller past the record timeout")
}
