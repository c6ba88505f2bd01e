package config

import "testing"

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 0}}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_InvalidDatabaseDriver(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "oracle"},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid database driver")
	}

	expected := `database.driver must be "postgres", "sqlite" or "memory", got "oracle"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_SQLDriversRequireDSN(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres"} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := Config{
				HTTP:     HTTPConfig{Port: 8080},
				Database: DatabaseConfig{Driver: driver},
			}
			cfg.ApplyDefaults()

			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for %s driver without dsn", driver)
			}

			cfg.Database.DSN = "file:test.db"
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error with dsn set: %v", err)
			}
		})
	}
}

func TestValidate_MemoryDriverNeedsNoDSN(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for memory driver: %v", err)
	}
}

func TestValidate_RedisCacheRequiresAddrs(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Cache: CacheConfig{Driver: "redis"},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis cache without addrs")
	}

	cfg.Cache.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with addrs set: %v", err)
	}
}

func TestValidate_InvalidCacheDriver(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Cache: CacheConfig{Driver: "memcached"},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid cache driver")
	}
}

func TestValidate_PageSizeOrdering(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Search: SearchConfig{DefaultPageSize: 600, MaxPageSize: 500},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default page size exceeds max")
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
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected Driver='memory', got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("expected cache Driver='memory', got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.KeyPrefix != "corpsearch:" {
		t.Errorf("expected KeyPrefix='corpsearch:', got %q", cfg.Cache.KeyPrefix)
	}
	if cfg.Cache.TTLSec != 300 {
		t.Errorf("expected TTLSec=300, got %d", cfg.Cache.TTLSec)
	}
	if cfg.Cache.MaxEntries != 1024 {
		t.Errorf("expected MaxEntries=1024, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Geocoder.TimeoutSec != 5 {
		t.Errorf("expected geocoder TimeoutSec=5, got %d", cfg.Geocoder.TimeoutSec)
	}
	if cfg.Search.DefaultRadiusMeters != 200_000 {
		t.Errorf("expected DefaultRadiusMeters=200000, got %v", cfg.Search.DefaultRadiusMeters)
	}
	if cfg.Search.DefaultPageSize != 20 {
		t.Errorf("expected DefaultPageSize=20, got %d", cfg.Search.DefaultPageSize)
	}
	if cfg.Search.MaxPageSize != 500 {
		t.Errorf("expected MaxPageSize=500, got %d", cfg.Search.MaxPageSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: "sqlite", ReadinessTimeout: 15},
		Cache:    CacheConfig{Driver: "none", KeyPrefix: "custom:", TTLSec: 60, MaxEntries: 10},
		Search:   SearchConfig{DefaultRadiusMeters: 5_000, DefaultPageSize: 50, MaxPageSize: 100},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected Driver='sqlite', got %q", cfg.Database.Driver)
	}
	if cfg.Cache.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Cache.KeyPrefix)
	}
	if cfg.Search.DefaultRadiusMeters != 5_000 {
		t.Errorf("expected DefaultRadiusMeters=5000, got %v", cfg.Search.DefaultRadiusMeters)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CORPSEARCH_TEST_DSN", "postgres://db/corp")

	in := []byte("dsn: ${CORPSEARCH_TEST_DSN}\nprefix: ${CORPSEARCH_TEST_MISSING:-corpsearch:}\nempty: ${CORPSEARCH_TEST_UNSET}\n")
	out := string(expandEnvVars(in))

	want := "dsn: postgres://db/corp\nprefix: corpsearch:\nempty: \n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
