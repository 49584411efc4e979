package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/taskshare-api/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsOnInterval(t *testing.T) {
	t.Parallel()

	f := newNotifierFixture(t)
	owner := f.addUser(t, "alice", "alice@example.com")
	f.addTask(t, owner.ID, "Due tomorrow", tomorrow)

	scheduler := notify.NewScheduler(f.notifier, 10*time.Millisecond, testLogger())
	scheduler.Start(context.Background())

	require.Eventually(t, func() bool {
		return f.mailer.SentCount() >= 2
	}, 2*time.Second, 5*time.Millisecond, "expected at least two scheduled runs")

	scheduler.Stop()
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	f := newNotifierFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	scheduler := notify.NewScheduler(f.notifier, time.Hour, testLogger())
	scheduler.Start(ctx)

	cancel()

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}

	assert.Empty(t, f.mailer.Sent)
}
