package frontier_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/rohmanhakim/crawlctl/internal/frontier"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func TestEnqueueDequeue_FIFO(t *testing.T) {
	f := frontier.New()
	f.Enqueue(frontier.Task{CanonicalURL: mustURL(t, "https://a.test/1")})
	f.Enqueue(frontier.Task{CanonicalURL: mustURL(t, "https://a.test/2")})

	ctx := context.Background()
	first, ok := f.Dequeue(ctx)
	require.True(t, ok)
	require.Equal(t, "https://a.test/1", first.CanonicalURL.String())

	second, ok := f.Dequeue(ctx)
	require.True(t, ok)
	require.Equal(t, "https://a.test/2", second.CanonicalURL.String())
}

func TestDequeue_BlocksUntilEnqueue(t *testing.T) {
	f := frontier.New()
	done := make(chan frontier.Task, 1)

	go func() {
		task, ok := f.Dequeue(context.Background())
		require.True(t, ok)
		done <- task
	}()

	time.Sleep(20 * time.Millisecond)
	f.Enqueue(frontier.Task{CanonicalURL: mustURL(t, "https://a.test/"), Depth: 1})

	select {
	case task := <-done:
		require.Equal(t, 1, task.Depth)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not unblock")
	}
}

func TestDequeue_RespectsContextCancellation(t *testing.T) {
	f := frontier.New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := f.Dequeue(ctx)
	require.False(t, ok)
}

func TestIdle(t *testing.T) {
	f := frontier.New()
	require.True(t, f.Idle())

	f.Enqueue(frontier.Task{CanonicalURL: mustURL(t, "https://a.test/")})
	require.False(t, f.Idle())

	task, ok := f.Dequeue(context.Background())
	require.True(t, ok)
	require.False(t, f.Idle(), "pending but undone task keeps frontier non-idle")

	_ = task
	f.TaskDone()
	require.True(t, f.Idle())
}

func TestClose_UnblocksDequeue(t *testing.T) {
	f := frontier.New()
	done := make(chan bool, 1)

	go func() {
		_, ok := f.Dequeue(context.Background())
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	f.Close()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("close did not unblock dequeue")
	}
}
