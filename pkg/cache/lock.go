package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NameLock serialises clone naming decisions across worker instances.
// Checking short-name uniqueness and committing the duplicate must be
// atomic with respect to other concurrent runs cloning the same template.
type NameLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNameLock constructs a NameLock with the given reservation TTL.
func NewNameLock(client *redis.Client, ttl time.Duration) *NameLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &NameLock{client: client, ttl: ttl}
}

// Acquire reserves the naming decision for a template course. It returns a
// release func when the reservation is held, or ok=false when another run
// holds it.
func (l *NameLock) Acquire(ctx context.Context, templateCourseID int64) (release func(), ok bool, err error) {
	key := fmt.Sprintf("lms-recur:clone-lock:%d", templateCourseID)
	token := uuid.NewString()

	set, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire clone lock: %w", err)
	}
	if !set {
		return nil, false, nil
	}

	release = func() {
		// Delete only our own reservation; an expired lock may have been
		// re-acquired by another run.
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.client.Eval(releaseCtx, script, []string{key}, token).Err()
	}
	return release, true, nil
}
