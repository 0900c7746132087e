package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryHook answers SET NX and DEL from a map without touching the network.
type memoryHook struct {
	keys map[string]string
	ttls map[string]interface{}
}

func (h *memoryHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *memoryHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		args := cmd.Args()
		switch cmd.Name() {
		case "set":
			key := args[1].(string)
			_, exists := h.keys[key]
			if !exists {
				h.keys[key] = args[2].(string)
				h.ttls[key] = args[4]
			}
			cmd.(*redis.BoolCmd).SetVal(!exists)
		case "del":
			var n int64
			for _, a := range args[1:] {
				if _, ok := h.keys[a.(string)]; ok {
					delete(h.keys, a.(string))
					n++
				}
			}
			cmd.(*redis.IntCmd).SetVal(n)
		}
		return nil
	}
}

func (h *memoryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newTestGuard(t *testing.T) (*CheckoutGuard, *memoryHook) {
	t.Helper()
	hook := &memoryHook{keys: map[string]string{}, ttls: map[string]interface{}{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })
	return NewCheckoutGuard(client, 24*time.Hour), hook
}

func TestCheckoutGuard_FirstClaimWins(t *testing.T) {
	guard, hook := newTestGuard(t)
	ctx := context.Background()

	ok, err := guard.Claim(ctx, "chk_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Claim(ctx, "chk_1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Contains(t, hook.keys, "checkout:claimed:chk_1")
	assert.NotNil(t, hook.ttls["checkout:claimed:chk_1"])
}

func TestCheckoutGuard_ReleaseAllowsReclaim(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	ok, err := guard.Claim(ctx, "chk_2")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.Release(ctx, "chk_2"))

	ok, err = guard.Claim(ctx, "chk_2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}
