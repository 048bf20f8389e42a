package redis

import (
	"testing"
	"time"

	"github.com/snackdash/snackdash-core/pkg/config"
)

func TestCartChangedChannelNamespacing(t *testing.T) {
	if got := CartChangedChannel("cart-42"); got != "sd:cart:changed:cart-42" {
		t.Fatalf("unexpected channel name %q", got)
	}
	if got := CartChangedChannel(" cart-42 "); got != "sd:cart:changed:cart-42" {
		t.Fatalf("expected trimmed key, got %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address is set")
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	cfg := config.RedisConfig{
		URL:          "redis://:secret@localhost:6380/2",
		PoolSize:     7,
		MinIdleConns: 3,
		DialTimeout:  2 * time.Second,
	}

	opts, err := optionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
	if opts.PoolSize != 7 {
		t.Fatalf("pool size not applied: %d", opts.PoolSize)
	}
	if opts.DialTimeout != 2*time.Second {
		t.Fatalf("dial timeout not applied: %v", opts.DialTimeout)
	}
}

func TestOptionsFromConfigFallsBackToAddress(t *testing.T) {
	cfg := config.RedisConfig{
		Address:  "redis.internal:6379",
		Password: "secret",
		DB:       1,
	}

	opts, err := optionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "redis.internal:6379" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.Password != "secret" || opts.DB != 1 {
		t.Fatalf("credentials not applied: %+v", opts)
	}
}
