package redis_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forbearing/crud6/config"
	"github.com/forbearing/crud6/provider/redis"
)

// skipUnlessLive skips the test unless CRUD6_TEST_REDIS_ADDR points at a
// reachable redis instance; there is no fake client to substitute.
func skipUnlessLive(t *testing.T) string {
	addr := os.Getenv("CRUD6_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CRUD6_TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestSetMLGetML(t *testing.T) {
	addr := skipUnlessLive(t)
	config.App = new(config.Config)
	config.App.Redis.Enable = true
	config.App.Redis.Addr = addr
	require.NoError(t, redis.Init())
	defer redis.Shutdown()

	type group struct {
		Name        string `json:"name"`
		MemberCount int    `json:"member_count"`
	}
	groups := []group{{Name: "a", MemberCount: 1}, {Name: "b", MemberCount: 2}}

	require.NoError(t, redis.SetML("groups", groups))

	var got []group
	require.True(t, redis.GetML("groups", &got))
	require.Equal(t, groups, got)

	redis.Delete("groups")
	require.False(t, redis.GetML("groups", &got))
}

func TestPageCacheScopesKeys(t *testing.T) {
	addr := skipUnlessLive(t)
	config.App = new(config.Config)
	config.App.Redis.Enable = true
	config.App.Redis.Addr = addr
	require.NoError(t, redis.Init())
	defer redis.Shutdown()

	type page struct{ Count int }
	one := redis.PageCache[*page]{Prefix: "one:"}
	two := redis.PageCache[*page]{Prefix: "two:"}

	one.Set("k", &page{Count: 1})
	two.Set("k", &page{Count: 2})

	got, ok := one.Get("k")
	require.True(t, ok)
	require.Equal(t, 1, got.Count)

	got, ok = two.Get("k")
	require.True(t, ok)
	require.Equal(t, 2, got.Count)

	one.Delete("k")
	_, ok = one.Get("k")
	require.False(t, ok)
}
