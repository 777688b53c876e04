package scheduler

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_RejectsBadSpec(t *testing.T) {
	s := New(time.UTC)

	err := s.Add("broken", "not a cron spec", func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, 0, s.Jobs())
}

func TestAddDailyRefresh(t *testing.T) {
	s := New(time.UTC)
	require.NoError(t, s.AddDailyRefresh(func() {}))
	assert.Equal(t, 1, s.Jobs())
}

func TestNextDailyRefresh_ReferenceMidnight(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2025-02-13T14:30Z is 23:30 in Tokyo: the next refresh is the unlock instant.
	now := time.Date(2025, 2, 13, 14, 30, 0, 0, time.UTC)
	next, err := NextDailyRefresh(now, tokyo)
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2025, 2, 14, 0, 0, 0, 0, tokyo)), "got %s", next)

	next, err = NextDailyRefresh(now, time.UTC)
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)), "got %s", next)
}

func TestNextRefresh_OnlyWithDailyJob(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	now := time.Date(2025, 2, 13, 22, 30, 0, 0, time.UTC) // 23:30 in Paris

	s := New(paris)
	require.NoError(t, s.Add("tick", "@every 1s", func() {}))
	_, ok := s.NextRefresh(now)
	assert.False(t, ok, "No daily refresh registered yet")

	require.NoError(t, s.AddDailyRefresh(func() {}))
	next, ok := s.NextRefresh(now)
	require.True(t, ok)
	assert.True(t, next.Equal(time.Date(2025, 2, 14, 0, 0, 0, 0, paris)), "got %s", next)
}

func TestStart_StopsOnCancel(t *testing.T) {
	s := New(time.UTC)
	require.NoError(t, s.Add("every_second", "@every 1s", func() {}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Scheduler did not stop after cancellation")
	}
}

func TestStart_RunsJobs(t *testing.T) {
	s := New(time.UTC)
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Add("tick", "@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("Job never ran")
	}
}
