package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: "redis",
			Addrs:  []string{"localhost:6379"},
		},
		Vectorizer: VectorizerConfig{Provider: "ngram"},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "memory"
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "sqlite"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_OpenAIProviderRequirements(t *testing.T) {
	cfg := validConfig()
	cfg.Vectorizer = VectorizerConfig{Provider: "openai"}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for openai provider without base_url")
	}

	cfg.Vectorizer.BaseURL = "https://api.example.com/v1/"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for openai provider without model")
	}

	cfg.Vectorizer.Model = "text-embedding-3-small"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownVectorizerProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Vectorizer.Provider = "bert"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown vectorizer provider")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Index.Name != "watchlist" {
		t.Errorf("expected index name=watchlist, got %q", cfg.Index.Name)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.HNSWEFConstruct != 400 {
		t.Errorf("expected HNSWEFConstruct=400, got %d", cfg.Index.HNSWEFConstruct)
	}
	if cfg.Index.MaxBatchSize != 1000 {
		t.Errorf("expected MaxBatchSize=1000, got %d", cfg.Index.MaxBatchSize)
	}
	if cfg.Storage.KeyPrefix != "namescreen:" {
		t.Errorf("expected KeyPrefix='namescreen:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Search.TimeoutMs != 5000 {
		t.Errorf("expected TimeoutMs=5000, got %d", cfg.Search.TimeoutMs)
	}
	if cfg.Vectorizer.Provider != "ngram" {
		t.Errorf("expected provider=ngram, got %q", cfg.Vectorizer.Provider)
	}
	if cfg.Vectorizer.Dimensions != 256 {
		t.Errorf("expected Dimensions=256, got %d", cfg.Vectorizer.Dimensions)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:   DatabaseConfig{Driver: "memory", ReadinessTimeout: 15},
		Index:      IndexConfig{Name: "custom", HNSWM: 16, HNSWEFConstruct: 200, MaxBatchSize: 50},
		Storage:    StorageConfig{KeyPrefix: "custom:"},
		Vectorizer: VectorizerConfig{Provider: "openai", Dimensions: 1024},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected driver=memory, got %q", cfg.Database.Driver)
	}
	if cfg.Index.Name != "custom" {
		t.Errorf("expected index name=custom, got %q", cfg.Index.Name)
	}
	if cfg.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Index.HNSWM)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Vectorizer.Dimensions != 1024 {
		t.Errorf("expected Dimensions=1024, got %d", cfg.Vectorizer.Dimensions)
	}
}
