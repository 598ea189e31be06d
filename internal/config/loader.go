// internal/config/loader.go
//
// Configuration loader and reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `JYE_`, where `__` maps to “.”
     (e.g., `JYE_HTTP__LISTEN_ADDR → http.listen_addr`).

Values written as `vault:<mount/path>#<key>` are then resolved through a
SecretSource and written back into the tree.  After that the tree is
unmarshalled into strongly-typed structs, defaulted, validated, enriched
with the runtime root path, and cached in an `atomic.Pointer` for
lock-free reads.  `Reload()` calls `Load()` again and swaps the pointer.

Logging
-------
Every stage logs through zap.S() with component=config, which during boot
is the console logger installed by logger.Bootstrap.  Failures log at
ERROR, the summary at INFO, and the rest at DEBUG.

Notes
-----
  • Without JYE_ROOT the loader searches upwards from the working
    directory, so both binaries run from any sub-directory of a checkout.
  • Secrets are never logged, only the reference.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	// EnvPrefix marks environment overrides.
	EnvPrefix = "JYE_"
	// RootEnv overrides root discovery.
	RootEnv = "JYE_ROOT"

	vaultPrefix = "vault:"
	secretTTL   = 5 * time.Minute
)

// SecretSource resolves one key of a KV secret.  *vault.Client satisfies it.
type SecretSource interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

var (
	current atomic.Pointer[Config]
	secrets atomic.Pointer[sourceBox]
)

type sourceBox struct{ src SecretSource }

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir picks the directory holding conf/global.yaml.  Order: JYE_ROOT,
// the nearest ancestor of the working directory, the parent of a bin/
// directory holding the executable, and finally the working directory.
func rootDir() string {
	if r := os.Getenv(RootEnv); r != "" {
		return r
	}
	wd, _ := os.Getwd()
	if r, ok := climb(wd); ok {
		return r
	}
	if exe, err := os.Executable(); err == nil {
		if bin := filepath.Dir(exe); filepath.Base(bin) == "bin" {
			return filepath.Dir(bin)
		}
	}
	return wd
}

// climb walks from start towards / looking for conf/global.yaml.
func climb(start string) (string, bool) {
	for dir := start; ; {
		if fi, err := os.Stat(yamlFile(dir)); err == nil && !fi.IsDir() {
			return dir, true
		}
		up := filepath.Dir(dir)
		if up == dir {
			return "", false
		}
		dir = up
	}
}

func yamlFile(root string) string { return filepath.Join(root, "conf", "global.yaml") }

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves vault references through
// src (may be nil when no reference is used), validates, and caches Config.
func Load(ctx context.Context, src SecretSource) (*Config, error) {
	log := zap.S().With("component", "config")
	root := rootDir()
	log.Debugw("root resolved", "root", root)

	k, err := layers(root)
	if err != nil {
		log.Errorw("layering failed", "err", err)
		return nil, err
	}
	if err := resolveSecrets(ctx, k, src); err != nil {
		log.Errorw("vault resolution failed", "err", err)
		return nil, err
	}

	cfg := new(Config)
	if err := k.Unmarshal("", cfg); err != nil {
		log.Errorw("unmarshal failed", "err", err)
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	cfg.Paths.Root = root

	if err := validateStruct(cfg); err != nil {
		log.Errorw("validation failed", "err", err)
		return nil, err
	}

	current.Store(cfg)
	secrets.Store(&sourceBox{src: src})
	log.Infow("config ready",
		"listen", cfg.HTTP.ListenAddr,
		"https_only", cfg.HTTP.ForceHTTPS,
		"driver", cfg.Database.Driver,
		"dialect", cfg.Label.Dialect,
		"max_quantity", cfg.Label.MaxQuantity,
		"root", root,
	)
	return cfg, nil
}

// layers merges conf/.env, conf/global.yaml, and JYE_ variables, in that
// order of precedence (last wins).
func layers(root string) (*koanf.Koanf, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	if err := k.Load(file.Provider(yamlFile(root)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("read %s: %w", yamlFile(root), err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	return k, nil
}

// envKey maps JYE_DATABASE__DSN to database.dsn.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// resolveSecrets replaces every `vault:` string in k with its secret value.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, src SecretSource) error {
	keys := k.Keys()
	sort.Strings(keys)

	for _, key := range keys {
		raw, ok := k.Get(key).(string)
		if !ok || !strings.HasPrefix(raw, vaultPrefix) {
			continue
		}
		if src == nil {
			return fmt.Errorf("config %s: vault reference but no vault client (set VAULT_ADDR)", key)
		}
		path, field, err := parseRef(raw)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		val, err := src.GetKV(ctx, path, field, secretTTL)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		zap.S().Debugw("vault reference resolved", "component", "config", "key", key, "ref", raw)
	}
	return nil
}

// parseRef splits "vault:secret/jye/db#password" into path and key.
func parseRef(ref string) (path, key string, err error) {
	body := strings.TrimPrefix(ref, vaultPrefix)
	path, key, ok := strings.Cut(body, "#")
	if !ok || path == "" || key == "" {
		return "", "", fmt.Errorf("malformed vault reference %q (want vault:<mount/path>#<key>)", ref)
	}
	return path, key, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the last loaded Config, or nil before the first Load.
func Get() *Config { return current.Load() }

// Reload re-reads every layer with the SecretSource of the last Load.
func Reload(ctx context.Context) error {
	var src SecretSource
	if b := secrets.Load(); b != nil {
		src = b.src
	}
	_, err := Load(ctx, src)
	return err
}
