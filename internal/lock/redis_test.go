package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ppiankov/verifier/internal/model"
)

func TestRedisLocker(t *testing.T) {
	url := os.Getenv("VERIFIER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("VERIFIER_TEST_REDIS_URL not set")
	}

	rdb, err := NewRedisClient(context.Background(), model.RedisConfig{URL: url})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()

	locker := NewRedisLocker(rdb, 5*time.Second, nil)
	key := "test-" + time.Now().Format("150405.000000")

	unlock, err := locker.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, key); err == nil {
		t.Fatal("expected second lock to wait until the deadline")
	}

	unlock()

	again, err := locker.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("expected lock to be free after release: %v", err)
	}
	again()
}
