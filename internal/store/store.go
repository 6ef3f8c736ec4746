// Package store adapts mosaicod's ObjectStore abstraction onto TiDB's
// ExternalStorage, giving chunk writers a uniform write/read/list surface
// over local disk, S3, and GCS backends.
package store

import (
	"context"
	"io"

	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/br/pkg/storage"

	"mosaicod/internal/config"
)

// ObjectStore is the write-path facing surface chunk writers and the
// catalog facade use to materialize and read back chunk artifacts.
type ObjectStore interface {
	// WriteBytes writes b to name, replacing any existing object.
	WriteBytes(ctx context.Context, name string, b []byte) error
	// ReadBytes reads the entire object at name.
	ReadBytes(ctx context.Context, name string) ([]byte, error)
	// Exists reports whether an object exists at name.
	Exists(ctx context.Context, name string) (bool, error)
	// Size returns the size in bytes of the object at name.
	Size(ctx context.Context, name string) (int64, error)
	// DeleteRecursive deletes every object whose name has prefix.
	DeleteRecursive(ctx context.Context, prefix string) error
	// WriteCloserTo opens a streaming writer for name. The chunk write
	// path does not use it: chunks are encoded in memory and handed to
	// WriteBytes whole.
	WriteCloserTo(ctx context.Context, name string) (io.WriteCloser, error)
	// URL reports the backend-qualified URL for name, e.g. for
	// inclusion in a DoPut response or a manifest.
	URL(name string) string
}

// externalStorageAdapter wraps a TiDB ExternalStorage as an ObjectStore.
type externalStorageAdapter struct {
	backend storage.ExternalStorage
	base    string
}

// New constructs an ObjectStore from the given backend configuration,
// mirroring the teacher's config.GetStore backend-selection logic.
func New(ctx context.Context, cfg config.StoreConfig) (ObjectStore, error) {
	var opts *storage.BackendOptions
	switch {
	case cfg.S3 != nil:
		opts = &storage.BackendOptions{S3: storage.S3BackendOptions{
			Region:          cfg.S3.Region,
			AccessKey:       cfg.S3.AccessKey,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Provider:        cfg.S3.Provider,
			Endpoint:        cfg.S3.Endpoint,
			RoleARN:         cfg.S3.RoleArn,
		}}
	case cfg.GCS != nil:
		opts = &storage.BackendOptions{GCS: storage.GCSBackendOptions{
			CredentialsFile: cfg.GCS.Credential,
		}}
	}

	backend, err := storage.ParseBackend(cfg.Path, opts)
	if err != nil {
		return nil, errors.Annotate(err, "parse store backend")
	}
	ext, err := storage.NewWithDefaultOpt(ctx, backend)
	if err != nil {
		return nil, errors.Annotate(err, "initialize store backend")
	}
	return &externalStorageAdapter{backend: ext, base: cfg.Path}, nil
}

func (a *externalStorageAdapter) WriteBytes(ctx context.Context, name string, b []byte) error {
	if err := a.backend.WriteFile(ctx, name, b); err != nil {
		return errors.Annotatef(err, "write %q", name)
	}
	return nil
}

func (a *externalStorageAdapter) ReadBytes(ctx context.Context, name string) ([]byte, error) {
	b, err := a.backend.ReadFile(ctx, name)
	if err != nil {
		return nil, errors.Annotatef(err, "read %q", name)
	}
	return b, nil
}

func (a *externalStorageAdapter) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := a.backend.FileExists(ctx, name)
	if err != nil {
		return false, errors.Annotatef(err, "stat %q", name)
	}
	return ok, nil
}

func (a *externalStorageAdapter) Size(ctx context.Context, name string) (int64, error) {
	var size int64
	found := false
	err := a.backend.WalkDir(ctx, &storage.WalkOption{SubDir: name, SkipSubDir: true}, func(path string, sz int64) error {
		if path == name {
			size = sz
			found = true
		}
		return nil
	})
	if err != nil {
		return 0, errors.Annotatef(err, "size %q", name)
	}
	if !found {
		return 0, errors.Errorf("object %q not found", name)
	}
	return size, nil
}

func (a *externalStorageAdapter) DeleteRecursive(ctx context.Context, prefix string) error {
	var names []string
	err := a.backend.WalkDir(ctx, &storage.WalkOption{SubDir: prefix}, func(path string, size int64) error {
		names = append(names, path)
		return nil
	})
	if err != nil {
		return errors.Annotatef(err, "walk %q", prefix)
	}
	for _, name := range names {
		if err := a.backend.DeleteFile(ctx, name); err != nil {
			return errors.Annotatef(err, "delete %q", name)
		}
	}
	return nil
}

func (a *externalStorageAdapter) WriteCloserTo(ctx context.Context, name string) (io.WriteCloser, error) {
	w, err := a.backend.Create(ctx, name, &storage.WriterOption{})
	if err != nil {
		return nil, errors.Annotatef(err, "open writer %q", name)
	}
	return &extWriterCloser{ctx: ctx, w: w}, nil
}

func (a *externalStorageAdapter) URL(name string) string {
	return a.base + "/" + name
}

// extWriterCloser adapts storage.ExternalFileWriter (which takes a ctx
// per call) to io.WriteCloser.
type extWriterCloser struct {
	ctx context.Context
	w   storage.ExternalFileWriter
}

func (w *extWriterCloser) Write(p []byte) (int, error) {
	n, err := w.w.Write(w.ctx, p)
	if err != nil {
		return n, errors.Trace(err)
	}
	return n, nil
}

func (w *extWriterCloser) Close() error {
	if err := w.w.Close(w.ctx); err != nil {
		return errors.Trace(err)
	}
	return nil
}
