package redisclient

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLocker(t *testing.T, ttl time.Duration) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisParticipantLocker(client, ttl), mr
}

func TestWithParticipantLocksRunsAndReleases(t *testing.T) {
	locker, mr := newTestLocker(t, 5*time.Second)

	ran := false
	err := locker.WithParticipantLocks(context.Background(), []string{"doctor:d1", "patient:p1"}, func(ctx context.Context) error {
		ran = true
		if !mr.Exists("lock:participant:doctor:d1") || !mr.Exists("lock:participant:patient:p1") {
			t.Error("expected both participant keys to be held inside fn")
		}
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected fn context to carry the lock ttl deadline")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with participant locks: %v", err)
	}
	if !ran {
		t.Fatal("expected fn to run")
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected locks released, still held: %v", keys)
	}
}

func TestWithParticipantLocksAllOrNothing(t *testing.T) {
	locker, mr := newTestLocker(t, 100*time.Millisecond)

	if err := mr.Set("lock:participant:patient:p2", "someone-else"); err != nil {
		t.Fatalf("preset lock: %v", err)
	}

	err := locker.WithParticipantLocks(context.Background(), []string{"doctor:d1", "patient:p2"}, func(context.Context) error {
		t.Error("fn must not run while a participant is locked")
		return nil
	})
	if !errors.Is(err, ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired, got %v", err)
	}
	if mr.Exists("lock:participant:doctor:d1") {
		t.Fatal("expected no partial acquisition of the free key")
	}
	if got, _ := mr.Get("lock:participant:patient:p2"); got != "someone-else" {
		t.Fatalf("foreign lock must be left alone, got %q", got)
	}
}

func TestWithParticipantLocksWaitsForHolder(t *testing.T) {
	locker, mr := newTestLocker(t, 5*time.Second)

	if err := mr.Set("lock:participant:doctor:d1", "someone-else"); err != nil {
		t.Fatalf("preset lock: %v", err)
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		mr.Del("lock:participant:doctor:d1")
	}()

	ran := false
	err := locker.WithParticipantLocks(context.Background(), []string{"doctor:d1"}, func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected lock acquired once the holder let go, got %v", err)
	}
	if !ran {
		t.Fatal("expected fn to run")
	}
	if mr.Exists("lock:participant:doctor:d1") {
		t.Fatal("expected lock released after fn")
	}
}

func TestWithParticipantLocksStopsWaitingOnCancel(t *testing.T) {
	locker, mr := newTestLocker(t, 5*time.Second)

	if err := mr.Set("lock:participant:doctor:d1", "someone-else"); err != nil {
		t.Fatalf("preset lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := locker.WithParticipantLocks(ctx, []string{"doctor:d1"}, func(context.Context) error {
		t.Error("fn must not run while the lock is held")
		return nil
	})
	if !errors.Is(err, ErrLockNotAcquired) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrLockNotAcquired wrapping the deadline, got %v", err)
	}
}

func TestWithParticipantLocksRedisDown(t *testing.T) {
	locker, mr := newTestLocker(t, time.Second)
	mr.Close()

	err := locker.WithParticipantLocks(context.Background(), []string{"doctor:d1"}, func(context.Context) error {
		t.Error("fn must not run without the lock")
		return nil
	})
	if !errors.Is(err, ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired, got %v", err)
	}
}

func TestWithParticipantLocksReleasesOnError(t *testing.T) {
	locker, mr := newTestLocker(t, 5*time.Second)
	boom := errors.New("boom")

	err := locker.WithParticipantLocks(context.Background(), []string{"doctor:d1"}, func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error returned, got %v", err)
	}
	if mr.Exists("lock:participant:doctor:d1") {
		t.Fatal("expected lock released after fn error")
	}
}

func TestWithParticipantLocksExpire(t *testing.T) {
	locker, mr := newTestLocker(t, time.Second)

	err := locker.WithParticipantLocks(context.Background(), []string{"doctor:d1"}, func(context.Context) error {
		if ttl := mr.TTL("lock:participant:doctor:d1"); ttl <= 0 || ttl > time.Second {
			t.Errorf("unexpected lock ttl %s", ttl)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with participant locks: %v", err)
	}
}

func TestParticipantKeysSortedAndUnique(t *testing.T) {
	got := participantKeys([]string{"patient:p1", "doctor:d1", "patient:p1"})
	want := []string{"lock:participant:doctor:d1", "lock:participant:patient:p1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("participantKeys = %v, want %v", got, want)
	}
}

func TestNoopLocker(t *testing.T) {
	called := false
	err := NoopLocker{}.WithParticipantLocks(context.Background(), []string{"doctor:d1"}, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected fn to run without error, called=%v err=%v", called, err)
	}
}
