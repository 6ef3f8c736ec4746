package store

import (
	"context"
	"testing"

	"mosaicod/internal/config"
)

func TestWriteReadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(ctx, config.StoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := []byte("sequence/topic/data-00000.parquet")
	if err := s.WriteBytes(ctx, "seq/topic/data-00000.parquet", want); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	ok, err := s.Exists(ctx, "seq/topic/data-00000.parquet")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Fatalf("expected object to exist after write")
	}

	got, err := s.ReadBytes(ctx, "seq/topic/data-00000.parquet")
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("ReadBytes = %q, want %q", got, want)
	}
}

func TestExistsFalseForMissingObject(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(ctx, config.StoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ok, err := s.Exists(ctx, "does/not/exist.parquet")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatalf("expected Exists=false for missing object")
	}
}

func TestDeleteRecursive(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(ctx, config.StoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, name := range []string{"seq/t1/data-00000.parquet", "seq/t1/data-00001.parquet", "seq/t2/data-00000.parquet"} {
		if err := s.WriteBytes(ctx, name, []byte("x")); err != nil {
			t.Fatalf("WriteBytes %q: %v", name, err)
		}
	}

	if err := s.DeleteRecursive(ctx, "seq/t1"); err != nil {
		t.Fatalf("DeleteRecursive: %v", err)
	}

	ok, err := s.Exists(ctx, "seq/t1/data-00000.parquet")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Errorf("expected t1 objects to be deleted")
	}
	ok, err = s.Exists(ctx, "seq/t2/data-00000.parquet")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Errorf("expected t2 objects to survive DeleteRecursive(\"seq/t1\")")
	}
}

func TestWriteCloserTo(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(ctx, config.StoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w, err := s.WriteCloserTo(ctx, "seq/topic/data-00000.parquet")
	if err != nil {
		t.Fatalf("WriteCloserTo: %v", err)
	}
	if _, err := w.Write([]byte("hello ")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write([]byte("world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := s.ReadBytes(ctx, "seq/topic/data-00000.parquet")
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("ReadBytes = %q, want %q", got, "hello world")
	}
}
