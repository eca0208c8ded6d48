package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relmq/relmq/config"
	"github.com/relmq/relmq/diskstore"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDiskStoreConfig(t *testing.T) {
	path := writeConfig(t, `
store:
  type: disk
  path: /var/lib/relmq
  fsync: true
drb:
  port: 7000
  acl: "allow 127.0.0.1 deny 0.0.0.0/0"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Type != config.StoreDisk || cfg.Store.Path != "/var/lib/relmq" || !cfg.Store.Fsync {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.ListenAddr() != ":7000" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr())
	}

	backend, err := cfg.BuildStore()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := backend.(*diskstore.Store); !ok {
		t.Fatalf("expected *diskstore.Store, got %T", backend)
	}

	acl, err := cfg.BuildACL()
	if err != nil {
		t.Fatal(err)
	}
	if acl == nil {
		t.Fatal("expected a non-nil ACL")
	}
}

func TestLoadDefaultsListenAddrWhenPortUnset(t *testing.T) {
	path := writeConfig(t, "store:\n  type: disk\n  path: /tmp/relmq\n")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr() == "" {
		t.Fatal("expected a non-empty default listen address")
	}
}

func TestLoadRejectsUnknownStoreType(t *testing.T) {
	path := writeConfig(t, "store:\n  type: postgres\n")
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected an error for an unknown store type")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
