// Package config loads mosaicod's process-wide configuration: the two
// global write-path knobs (max chunk size, target read message size)
// plus catalog and object-store backend settings. Config is threaded
// explicitly through constructors; nothing here is a hidden singleton.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
)

// S3Config configures an S3-compatible object store backend.
type S3Config struct {
	Region          string `toml:"region,omitempty"`
	AccessKey       string `toml:"access_key,omitempty"`
	SecretAccessKey string `toml:"secret_key,omitempty"`
	Provider        string `toml:"provider,omitempty"`
	Endpoint        string `toml:"endpoint,omitempty"`
	RoleArn         string `toml:"role_arn,omitempty"`
}

// GCSConfig configures a GCS object store backend.
type GCSConfig struct {
	Credential string `toml:"credential,omitempty"`
}

// StoreConfig selects and configures the ObjectStore backend.
type StoreConfig struct {
	// Path is the base URL or filesystem path resources are rooted at,
	// e.g. "s3://bucket/prefix" or "/var/lib/mosaicod/data".
	Path string    `toml:"path"`
	S3   *S3Config `toml:"s3,omitempty"`
	GCS  *GCSConfig `toml:"gcs,omitempty"`
}

// CatalogConfig configures the relational catalog.
type CatalogConfig struct {
	// Path is the SQLite database file path.
	Path string `toml:"path"`
}

// WriterConfig groups tunables for the write path.
type WriterConfig struct {
	// MaxChunkSize is the human-readable max chunk size ("64MiB"). Empty
	// or zero means unlimited (no automatic chunk rotation).
	MaxChunkSize string `toml:"max_chunk_size,omitempty"`
	// TargetMessageSize is the human-readable target read-side batch
	// size, the value to pass to TopicWriteFacade.ComputeOptimalBatchSize.
	TargetMessageSize string `toml:"target_message_size,omitempty"`
	// EncodePoolSize bounds concurrent chunk encodes offloaded from the
	// caller's goroutine. 0 defaults to runtime.GOMAXPROCS(0).
	EncodePoolSize int `toml:"encode_pool_size,omitempty"`

	// MaxChunkSizeInBytes and TargetMessageSizeInBytes are derived at
	// runtime by Normalize and are not read from the TOML file directly.
	MaxChunkSizeInBytes      int64 `toml:"-"`
	TargetMessageSizeInBytes int64 `toml:"-"`
}

// Config is the top-level process configuration.
type Config struct {
	Writer  WriterConfig  `toml:"writer"`
	Store   StoreConfig   `toml:"store"`
	Catalog CatalogConfig `toml:"catalog"`
}

const defaultTargetMessageSize = 4 * units.MiB

// Load reads and normalizes a TOML configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize resolves derived byte-size values from their human-readable
// string forms after loading.
func Normalize(cfg *Config) error {
	maxChunk, err := resolveHumanSize(cfg.Writer.MaxChunkSize, 0)
	if err != nil {
		return fmt.Errorf("invalid writer.max_chunk_size: %w", err)
	}
	cfg.Writer.MaxChunkSizeInBytes = maxChunk

	target, err := resolveHumanSize(cfg.Writer.TargetMessageSize, defaultTargetMessageSize)
	if err != nil {
		return fmt.Errorf("invalid writer.target_message_size: %w", err)
	}
	cfg.Writer.TargetMessageSizeInBytes = target

	if cfg.Writer.EncodePoolSize <= 0 {
		cfg.Writer.EncodePoolSize = runtime.GOMAXPROCS(0)
	}
	return nil
}

// Validate returns a user-friendly error describing every problem found.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}
	if cfg.Catalog.Path == "" {
		errs = append(errs, "catalog.path is required")
	}
	if cfg.Store.S3 != nil && cfg.Store.GCS != nil {
		errs = append(errs, "only one of [store.s3] or [store.gcs] can be configured")
	}
	if cfg.Writer.MaxChunkSizeInBytes < 0 {
		errs = append(errs, "writer.max_chunk_size must be >= 0")
	}
	if cfg.Writer.TargetMessageSizeInBytes <= 0 {
		errs = append(errs, "writer.target_message_size must be > 0")
	}

	if len(errs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("invalid config:\n")
	for _, e := range errs {
		sb.WriteString(" - ")
		sb.WriteString(e)
		sb.WriteString("\n")
	}
	return fmt.Errorf("%s", strings.TrimRight(sb.String(), "\n"))
}

func resolveHumanSize(s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	n, err := units.FromHumanSize(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must be >= 0, got %q", s)
	}
	return n, nil
}

// MaxChunkSize returns the configured max chunk size as an optional
// value: nil means unlimited, mirroring the Rust `Option<usize>`.
func (c *Config) MaxChunkSize() *int64 {
	if c.Writer.MaxChunkSizeInBytes == 0 {
		return nil
	}
	v := c.Writer.MaxChunkSizeInBytes
	return &v
}
