package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskCache_PutGet(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()

	key := "https://storage.example/voices/rachel/preview.mp3"
	data := bytes.Repeat([]byte("mp3-frame"), 500)

	if err := dc.Put(key, data); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok := dc.Get(key)
	if !ok {
		t.Fatal("Get() missed a stored key")
	}
	if !bytes.Equal(got, data) {
		t.Error("round trip mismatch")
	}

	stats := dc.Stats()
	if stats.Size >= int64(len(data)) {
		t.Errorf("repetitive data not compressed: %d >= %d", stats.Size, len(data))
	}
	if stats.ItemCount != 1 || stats.Hits != 1 {
		t.Errorf("Stats() = %+v", stats)
	}

	if _, ok := dc.Get("missing"); ok {
		t.Error("Get() hit a missing key")
	}
}

func TestDiskCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if err := dc.Put("a", []byte("alpha")); err != nil {
		t.Fatal(err)
	}
	if err := dc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewDiskCache(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, ok := reopened.Get("a")
	if !ok || string(got) != "alpha" {
		t.Errorf("Get() after reopen = %q, %v", got, ok)
	}
}

func TestDiskCache_Eviction(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 64)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()

	// Random-ish bytes compress poorly, so each entry takes real space.
	blob := func(seed byte) []byte {
		b := make([]byte, 30)
		for i := range b {
			b[i] = seed*31 + byte(i*17)
		}
		return b
	}

	_ = dc.Put("one", blob(1))
	_ = dc.Put("two", blob(2))
	_ = dc.Put("three", blob(3))

	if dc.Stats().Size > 64 {
		t.Errorf("Size %d exceeds capacity", dc.Stats().Size)
	}
	if !dc.Contains("three") {
		t.Error("newest entry missing")
	}
	if dc.Contains("one") {
		t.Error("oldest entry should have been evicted")
	}

	if err := dc.Put("huge", make([]byte, 4096)); err != nil && !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Put() huge = %v", err)
	}
}

func TestDiskCache_BrokenFile(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()

	if err := dc.Put("k", []byte("value")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, fileName("k")), []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := dc.Get("k"); ok {
		t.Error("Get() returned a corrupted entry")
	}
	if dc.Contains("k") {
		t.Error("corrupted entry not dropped")
	}

	if err := dc.Clear(); err != nil {
		t.Errorf("Clear() error = %v", err)
	}
}
