package config

import "testing"

func validConfig() *Config {
	return &Config{
		Store:   StoreConfig{Path: "/var/lib/mosaicod/data"},
		Catalog: CatalogConfig{Path: "/var/lib/mosaicod/catalog.db"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Writer.MaxChunkSizeInBytes != 0 {
		t.Errorf("MaxChunkSizeInBytes = %d, want 0 (unlimited)", cfg.Writer.MaxChunkSizeInBytes)
	}
	if cfg.Writer.TargetMessageSizeInBytes != defaultTargetMessageSize {
		t.Errorf("TargetMessageSizeInBytes = %d, want %d", cfg.Writer.TargetMessageSizeInBytes, defaultTargetMessageSize)
	}
	if cfg.Writer.EncodePoolSize <= 0 {
		t.Errorf("EncodePoolSize = %d, want > 0", cfg.Writer.EncodePoolSize)
	}
	if cfg.MaxChunkSize() != nil {
		t.Errorf("MaxChunkSize() = %v, want nil", cfg.MaxChunkSize())
	}
}

func TestNormalizeHumanSizes(t *testing.T) {
	cfg := validConfig()
	cfg.Writer.MaxChunkSize = "64MiB"
	cfg.Writer.TargetMessageSize = "8MiB"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Writer.MaxChunkSizeInBytes != 64*1024*1024 {
		t.Errorf("MaxChunkSizeInBytes = %d, want %d", cfg.Writer.MaxChunkSizeInBytes, 64*1024*1024)
	}
	if got := cfg.MaxChunkSize(); got == nil || *got != 64*1024*1024 {
		t.Errorf("MaxChunkSize() = %v, want 64MiB", got)
	}
}

func TestNormalizeInvalidSize(t *testing.T) {
	cfg := validConfig()
	cfg.Writer.MaxChunkSize = "not-a-size"
	if err := Normalize(cfg); err == nil {
		t.Fatalf("expected error for invalid max_chunk_size")
	}
}

func TestValidateRequiresStoreAndCatalogPath(t *testing.T) {
	cfg := &Config{}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"store.path is required", "catalog.path is required"} {
		if !contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestValidateRejectsBothS3AndGCS(t *testing.T) {
	cfg := validConfig()
	cfg.Store.S3 = &S3Config{Region: "us-east-1"}
	cfg.Store.GCS = &GCSConfig{Credential: "x"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error when both s3 and gcs configured")
	}
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
