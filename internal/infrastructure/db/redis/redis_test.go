package redis

import (
	"testing"
	"time"
)

func TestConfig_Options(t *testing.T) {
	opts := Config{Addr: "cache:6379", DB: 2, Password: "pw"}.options()
	if opts.Addr != "cache:6379" || opts.DB != 2 || opts.Password != "pw" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.ClientName != clientName {
		t.Fatalf("expected client name %q, got %q", clientName, opts.ClientName)
	}
	if opts.DialTimeout != dialTimeout {
		t.Fatalf("expected default dial timeout, got %s", opts.DialTimeout)
	}

	if got := (Config{Timeout: time.Second}).timeout(); got != time.Second {
		t.Fatalf("expected explicit timeout, got %s", got)
	}
}
