package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "basecreator.json")
	if err := os.WriteFile(path, []byte(`{"web3":{"chain_config":"chains.yaml"}}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Name != "BaseCreator" || cfg.App.ChainID != 8453 {
		t.Fatalf("unexpected app defaults %+v", cfg.App)
	}
	if cfg.Storage.Driver != "leveldb" || cfg.Storage.Key != "minikit_user" {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Storage.Path != filepath.Join(dir, "data", "session") {
		t.Fatalf("expected storage path relative to config, got %s", cfg.Storage.Path)
	}
	if cfg.Web3.ChainConfig != filepath.Join(dir, "chains.yaml") {
		t.Fatalf("expected chain config relative to config, got %s", cfg.Web3.ChainConfig)
	}
	if cfg.Events.Driver != "none" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected defaults events=%s level=%s", cfg.Events.Driver, cfg.Logging.Level)
	}
	fee, err := cfg.CreationFee()
	if err != nil || fee.String() != "10000000000000000" {
		t.Fatalf("unexpected creation fee %v err=%v", fee, err)
	}
}

func TestParseRejectsUnknownDrivers(t *testing.T) {
	cases := []string{
		`{"storage":{"driver":"sqlite"}}`,
		`{"events":{"driver":"kafka"}}`,
		`{"web3":{"creation_fee_wei":"-1"}}`,
		`{"web3":{"creation_fee_wei":"0.01"}}`,
		`{not json`,
	}
	for _, raw := range cases {
		if _, err := Parse([]byte(raw), "."); err == nil {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}
}

func TestParseNormalisesDrivers(t *testing.T) {
	cfg, err := Parse([]byte(`{"storage":{"driver":" Redis "},"events":{"driver":"RabbitMQ"}}`), "/etc/basecreator")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Storage.Driver != "redis" || cfg.Events.Driver != "rabbitmq" {
		t.Fatalf("unexpected drivers %s/%s", cfg.Storage.Driver, cfg.Events.Driver)
	}
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvPath, "")
	if PathFromEnv() != DefaultPath {
		t.Fatalf("expected default path, got %s", PathFromEnv())
	}
	t.Setenv(EnvPath, "/tmp/custom.json")
	if PathFromEnv() != "/tmp/custom.json" {
		t.Fatalf("expected env override, got %s", PathFromEnv())
	}
}
