package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInstallDiskCreatesStoreDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store")

	cmd := installDiskCmd()
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		t.Fatalf("expected %s to be a directory, stat err: %v", path, err)
	}
}

func TestInstallDiskDefaultsPath(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cmd := installDiskCmd()
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "relmq-data")); err != nil {
		t.Fatalf("expected default store directory, stat err: %v", err)
	}
}

func TestListRequiresQueueArgument(t *testing.T) {
	cmd := listCmd()
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing queue argument")
	}
}

func TestEmptyRequiresQueueArgument(t *testing.T) {
	cmd := emptyCmd()
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing queue argument")
	}
}

func TestInstallMySQLRequiresFourArguments(t *testing.T) {
	cmd := installMySQLCmd()
	cmd.SetArgs([]string{"localhost", "user"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing mysql arguments")
	}
}
