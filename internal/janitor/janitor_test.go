package janitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	retentionDays string
	cleanupCalls  int
	purgeCalls    int
	lastRetention int
}

func (f *fakeStore) ConfigValue(key string) (string, error) {
	if key == "retention_days" {
		return f.retentionDays, nil
	}
	return "", nil
}

func (f *fakeStore) CleanupOld(_ time.Time, retentionDays int) (int, error) {
	f.cleanupCalls++
	f.lastRetention = retentionDays
	return 0, nil
}

func (f *fakeStore) PurgeDeleted(_ time.Time, _ time.Duration) (int, error) {
	f.purgeCalls++
	return 0, nil
}

func TestRunSweepsImmediatelyAndOnTick(t *testing.T) {
	fs := &fakeStore{retentionDays: "10"}
	j := New(fs, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go j.Run(ctx)

	require.Eventually(t, func() bool {
		return fs.cleanupCalls >= 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 10, fs.lastRetention)
	assert.GreaterOrEqual(t, fs.purgeCalls, 1)
}

func TestRunFallsBackToDefaultRetentionOnBadConfig(t *testing.T) {
	fs := &fakeStore{retentionDays: "not-a-number"}
	j := New(fs, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go j.Run(ctx)

	require.Eventually(t, func() bool {
		return fs.cleanupCalls >= 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 7, fs.lastRetention)
}
