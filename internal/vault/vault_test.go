// internal/vault/vault_test.go
//
// KV-v2 reads against a fake Vault HTTP server.
//
// Run: go test ./internal/vault -v

package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	vault "github.com/hashicorp/vault/api"
)

const kvBody = `{
  "data": {
    "data": {"password": "s3cret", "port": 3306},
    "metadata": {
      "created_time": "2026-01-02T15:04:05.000000Z",
      "custom_metadata": null,
      "deletion_time": "",
      "destroyed": false,
      "version": 3
    }
  }
}`

func newFake(t *testing.T) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/jye/db" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(kvBody))
	}))
	t.Cleanup(srv.Close)

	cfg := vault.DefaultConfig()
	cfg.Address = srv.URL
	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		t.Fatalf("vault client: %v", err)
	}
	apiCli.SetToken("test-token")
	return wrap(apiCli), &hits
}

func TestGetKV_Cached(t *testing.T) {
	c, hits := newFake(t)
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		got, err := c.GetKV(context.Background(), "secret/jye/db", "password", time.Minute)
		if err != nil {
			t.Fatalf("GetKV error: %v", err)
		}
		if got != "s3cret" {
			t.Fatalf("GetKV = %q", got)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("vault hit %d times, want 1", hits.Load())
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.GetKV(context.Background(), "secret/jye/db", "password", time.Minute); err != nil {
		t.Fatalf("GetKV after expiry: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expired entry not refreshed: hits=%d", hits.Load())
	}
}

func TestGetKV_OneReadPerPath(t *testing.T) {
	c, hits := newFake(t)
	ctx := context.Background()

	if _, err := c.GetKV(ctx, "secret/jye/db", "password", time.Minute); err != nil {
		t.Fatalf("GetKV password: %v", err)
	}
	if _, err := c.GetKV(ctx, "secret/jye/db", "port", time.Minute); err == nil {
		t.Fatal("numeric port should not read as a string")
	}
	if hits.Load() != 1 {
		t.Fatalf("vault hit %d times for one path, want 1", hits.Load())
	}

	// ttl 0 bypasses the cache.
	if _, err := c.GetKV(ctx, "secret/jye/db", "password", 0); err != nil {
		t.Fatalf("GetKV uncached: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("uncached read not sent: hits=%d", hits.Load())
	}
}

func TestGetKV_Errors(t *testing.T) {
	c, _ := newFake(t)
	ctx := context.Background()

	if _, err := c.GetKV(ctx, "secret/jye/db", "missing", 0); err == nil {
		t.Error("missing key should fail")
	}
	if _, err := c.GetKV(ctx, "secret/jye/db", "port", 0); err == nil {
		t.Error("non-string value should fail")
	}
	if _, err := c.GetKV(ctx, "secret", "password", 0); err == nil {
		t.Error("mount-only path should fail")
	}
	if _, err := c.GetKV(ctx, "", "password", 0); err == nil {
		t.Error("empty path should fail")
	}
}

func TestSplitMount(t *testing.T) {
	cases := map[string][2]string{
		"secret/jye/db": {"secret", "jye/db"},
		"/secret/jye/":  {"secret", "jye"},
		"kv":            {"kv", ""},
	}
	for in, want := range cases {
		m, r := splitMount(in)
		if m != want[0] || r != want[1] {
			t.Errorf("splitMount(%q) = %q, %q; want %q, %q", in, m, r, want[0], want[1])
		}
	}
}
