package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func managerForTest(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheHelperBytes(t *testing.T) {
	cm, mr := managerForTest(t)
	ctx := context.Background()

	blob := []byte{0x02, 0xAB}
	if err := cm.Session.SetBytes(ctx, "sess-1", blob, SessionCacheConfig.TTL); err != nil {
		t.Fatalf("SetBytes() error = %v", err)
	}
	if ttl := mr.TTL("session:sess-1"); ttl != SessionCacheConfig.TTL {
		t.Errorf("TTL = %v, want %v", ttl, SessionCacheConfig.TTL)
	}

	got, err := cm.Session.GetBytes(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetBytes() error = %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("GetBytes() = %x, want %x", got, blob)
	}

	if _, err := cm.Session.GetBytes(ctx, "missing"); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("GetBytes(missing) error = %v, want ErrCacheNotFound", err)
	}

	if err := cm.Session.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := cm.Session.Exists(ctx, "sess-1"); ok {
		t.Error("Exists() = true after delete")
	}
}

func TestCacheHelperInvalidatePattern(t *testing.T) {
	cm, _ := managerForTest(t)
	ctx := context.Background()

	for _, key := range []string{"session:s1:route", "session:s1:items", "session:s2:route"} {
		if err := cm.Fast.SetBytes(ctx, key, []byte{0x01}, FastCacheConfig.TTL); err != nil {
			t.Fatalf("SetBytes() error = %v", err)
		}
	}
	if err := cm.Fast.InvalidatePattern(ctx, "session:s1:*"); err != nil {
		t.Fatalf("InvalidatePattern() error = %v", err)
	}
	if ok, _ := cm.Fast.Exists(ctx, "session:s1:route"); ok {
		t.Error("session:s1:route survived invalidation")
	}
	if ok, _ := cm.Fast.Exists(ctx, "session:s2:route"); !ok {
		t.Error("session:s2:route was invalidated by another session's pattern")
	}
}

func TestNilClientDegradesGracefully(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	if err := cm.Session.SetBytes(ctx, "k", []byte{0x01}, SessionCacheConfig.TTL); err != nil {
		t.Errorf("SetBytes() error = %v, want nil", err)
	}
	if _, err := cm.Session.GetBytes(ctx, "k"); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("GetBytes() error = %v, want ErrCacheNotAvailable", err)
	}
	if err := cm.Session.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := cm.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("HealthCheck() error = %v, want ErrCacheNotAvailable", err)
	}
}
