package redis

import (
	"testing"
	"time"
)

func TestNewOptions(t *testing.T) {
	opts := newOptions(Config{Addr: "cache:6379", Password: "pw", DB: 2})
	if opts.Addr != "cache:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.ClientName != "farmtrack-api" {
		t.Fatalf("expected default client name, got %q", opts.ClientName)
	}
	if opts.DialTimeout != defaultTimeout {
		t.Fatalf("expected default timeout, got %v", opts.DialTimeout)
	}

	opts = newOptions(Config{ClientName: "worker", Timeout: time.Second})
	if opts.ClientName != "worker" || opts.DialTimeout != time.Second {
		t.Fatalf("expected overrides, got %+v", opts)
	}
}
