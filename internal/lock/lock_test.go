package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestLocal_AlwaysAcquires(t *testing.T) {
	var l Locker = Local{}
	for i := 0; i < 2; i++ {
		release, ok, err := l.TryLock(context.Background(), "k", time.Second)
		if err != nil || !ok {
			t.Fatalf("attempt %d: ok=%v err=%v", i, ok, err)
		}
		if err := release(context.Background()); err != nil {
			t.Fatalf("release: %v", err)
		}
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Fatalf("expected ping error for closed port")
	}
}

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, "core:"), mr
}

func TestRedisLocker_AcquireContendRelease(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	release, ok, err := l.TryLock(ctx, "sweep", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	if !mr.Exists("core:sweep") {
		t.Fatalf("lock key must carry the prefix")
	}
	if ttl := mr.TTL("core:sweep"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	if _, ok, err := l.TryLock(ctx, "sweep", time.Minute); err != nil || ok {
		t.Fatalf("second lock must be refused: ok=%v err=%v", ok, err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("core:sweep") {
		t.Fatalf("lock key must be deleted on release")
	}

	again, ok, err := l.TryLock(ctx, "sweep", time.Minute)
	if err != nil || !ok {
		t.Fatalf("lock after release: ok=%v err=%v", ok, err)
	}
	_ = again(ctx)
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	stale, ok, err := l.TryLock(ctx, "sweep", time.Second)
	if err != nil || !ok {
		t.Fatalf("lock: ok=%v err=%v", ok, err)
	}
	// TTL истёк, блокировку забрал другой экземпляр
	mr.FastForward(2 * time.Second)
	if _, ok, err := l.TryLock(ctx, "sweep", time.Minute); err != nil || !ok {
		t.Fatalf("lock after expiry: ok=%v err=%v", ok, err)
	}
	owner, _ := mr.Get("core:sweep")

	if err := stale(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if got, _ := mr.Get("core:sweep"); got != owner {
		t.Fatalf("stale release removed a foreign lock: %q", got)
	}
}

func TestRedisLocker_RedisDown(t *testing.T) {
	l, mr := newRedisLocker(t)
	mr.Close()

	if _, ok, err := l.TryLock(context.Background(), "sweep", time.Minute); err == nil || ok {
		t.Fatalf("expected error when redis is down, got ok=%v err=%v", ok, err)
	}
}
