package mongo

import (
	"testing"
	"time"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions(Config{URI: "mongodb://db:27017", Database: "farmtrack"})
	if err := opts.Validate(); err != nil {
		t.Fatalf("invalid options: %v", err)
	}
	if opts.AppName == nil || *opts.AppName != "farmtrack-api" {
		t.Fatalf("expected default app name, got %v", opts.AppName)
	}
	if opts.ServerSelectionTimeout == nil || *opts.ServerSelectionTimeout != defaultTimeout {
		t.Fatalf("expected default server selection timeout, got %v", opts.ServerSelectionTimeout)
	}
	if len(opts.Hosts) != 1 || opts.Hosts[0] != "db:27017" {
		t.Fatalf("expected URI hosts to apply, got %v", opts.Hosts)
	}

	opts = clientOptions(Config{URI: "mongodb://db:27017", AppName: "seeder", Timeout: time.Second})
	if *opts.AppName != "seeder" || *opts.ServerSelectionTimeout != time.Second {
		t.Fatalf("expected overrides, got app=%v timeout=%v", *opts.AppName, *opts.ServerSelectionTimeout)
	}
}
