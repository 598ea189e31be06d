// internal/vault/vault.go
//
// Vault client wrapper for configuration secrets.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK for the one job the service needs:
//     resolving `vault:<mount/path>#<key>` references in configuration,
//     typically the database password.
//   - Adds background token renewal and a per-path cache of KV-v2 reads.
//   - Header block, section underlines, Oxford commas, two spaces after
//     periods, no m-dash.
//
// Boot order
// ----------
//  1. if vault.Configured() { cli, err := vault.New(ctx) }
//  2. cfg, err := config.Load(ctx, cli)
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

//
// SECTION 1.  Client and KV reads
//

// Client reads KV-v2 secrets and keeps its token alive.  Safe for
// concurrent use; build one per process with New.
type Client struct {
	api *vault.Client
	now func() time.Time

	mu      sync.Mutex
	secrets map[string]secretEntry // secret path → decoded data
}

// secretEntry holds every key of one secret, so a second key from the same
// path does not cost another round-trip.
type secretEntry struct {
	data    map[string]any
	expires time.Time
}

// Configured reports whether VAULT_ADDR is set.  Without it the service
// runs on plain configuration values.
func Configured() bool { return os.Getenv("VAULT_ADDR") != "" }

// New builds a client from the standard VAULT_* environment (VAULT_ADDR,
// VAULT_TOKEN, TLS settings) and renews the token in the background until
// ctx ends.
func New(ctx context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vault: default config: %w", cfg.Error)
	}
	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault: new client: %w", err)
	}
	if apiCli.Token() == "" {
		return nil, errors.New("vault: VAULT_ADDR is set but no token was found")
	}

	c := wrap(apiCli)
	go c.renewLoop(ctx)
	return c, nil
}

func wrap(apiCli *vault.Client) *Client {
	return &Client{
		api:     apiCli,
		now:     time.Now,
		secrets: make(map[string]secretEntry),
	}
}

// GetKV returns one string value from the KV-v2 secret at secretPath
// ("<mount>/<path>").  With ttl > 0 the whole secret is cached for ttl.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("vault: secret path and key are required")
	}
	data, err := c.secret(ctx, secretPath, ttl)
	if err != nil {
		return "", err
	}

	switch val := data[key].(type) {
	case string:
		return val, nil
	case nil:
		return "", fmt.Errorf("vault: %s has no key %q", secretPath, key)
	default:
		return "", fmt.Errorf("vault: %s#%s holds %T, want string", secretPath, key, val)
	}
}

func (c *Client) secret(ctx context.Context, secretPath string, ttl time.Duration) (map[string]any, error) {
	if ttl > 0 {
		c.mu.Lock()
		e, ok := c.secrets[secretPath]
		c.mu.Unlock()
		if ok && c.now().Before(e.expires) {
			return e.data, nil
		}
	}

	mount, rel := splitMount(secretPath)
	if rel == "" {
		return nil, fmt.Errorf("vault: %q names a mount but no secret", secretPath)
	}
	kv, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", secretPath, err)
	}

	if ttl > 0 {
		c.mu.Lock()
		c.secrets[secretPath] = secretEntry{data: kv.Data, expires: c.now().Add(ttl)}
		c.mu.Unlock()
	}
	return kv.Data, nil
}

//
// SECTION 2.  Background token renewal
//

// renewLoop keeps the token alive for the life of ctx.  Each round renews
// once, then hands the lease to a LifetimeWatcher until it gives up.
func (c *Client) renewLoop(ctx context.Context) {
	log := zap.S().With("component", "vault")
	for ctx.Err() == nil {
		backoff(ctx, c.renewRound(ctx, log))
	}
}

// renewRound returns how long to pause before the next round.
func (c *Client) renewRound(ctx context.Context, log *zap.SugaredLogger) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	switch {
	case err != nil:
		log.Warnw("token renewal failed", "err", err)
		return 30 * time.Second
	case sec == nil || sec.Auth == nil || !sec.Auth.Renewable:
		log.Infow("token not renewable; checking again in an hour")
		return time.Hour
	}

	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		log.Warnw("token watcher", "err", err)
		return 30 * time.Second
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				log.Debugw("token renewed", "lease_s", ev.Secret.Auth.LeaseDuration)
			}
		case err := <-w.DoneCh():
			if err != nil {
				log.Warnw("token watcher stopped", "err", err)
			}
			return 15 * time.Second
		}
	}
}

//
// SECTION 3.  Helpers
//

// splitMount turns "secret/jye/db" into ("secret", "jye/db").
func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(strings.Trim(p, "/"), "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
