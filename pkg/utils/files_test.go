package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	write := func(name string, age time.Duration) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		mtime := now.Add(-age)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("Failed to set mtime on %s: %v", name, err)
		}
	}

	write("old.wav", 2*time.Hour)
	write("fresh.wav", 10*time.Minute)
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	removed, err := CleanupOlderThan(dir, time.Hour, now)
	if err != nil {
		t.Fatalf("CleanupOlderThan failed: %v", err)
	}
	if len(removed) != 1 || removed[0] != "old.wav" {
		t.Errorf("Expected [old.wav] removed, got %v", removed)
	}

	if _, err := os.Stat(filepath.Join(dir, "fresh.wav")); err != nil {
		t.Errorf("Expected fresh.wav to survive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nested")); err != nil {
		t.Errorf("Expected nested dir to survive: %v", err)
	}
}

func TestCleanupOlderThanMissingDir(t *testing.T) {
	_, err := CleanupOlderThan(filepath.Join(t.TempDir(), "missing"), time.Hour, time.Now())
	if err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestGenerateUUID(t *testing.T) {
	a, b := GenerateUUID(), GenerateUUID()
	if a == b {
		t.Error("Expected distinct UUIDs")
	}
	if !IsUUID(a) {
		t.Errorf("Expected %q to parse as UUID", a)
	}
	if IsUUID("not-a-uuid") {
		t.Error("Expected invalid UUID to be rejected")
	}
}

func TestDeleteFileMissingIsNotError(t *testing.T) {
	if err := DeleteFile(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.part")
	dst := filepath.Join(dir, "a.wav")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("Expected source to be gone, got %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "data" {
		t.Errorf("Expected data, got %q", got)
	}

	if err := MoveFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("Expected error moving a missing file")
	}
}
