package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps uploads in a directory on disk.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Save(ctx context.Context, data []byte, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// MkdirAll is a no-op when the directory exists, including under races.
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create upload dir: %v", ErrStorageIO, err)
	}

	name := newObjectName(originalName)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrStorageIO, name, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: write %s: %v", ErrStorageIO, name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: close %s: %v", ErrStorageIO, name, err)
	}

	return PathPrefix + name, nil
}

func (s *LocalStore) Open(_ context.Context, name string) (*Object, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageIO, name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrStorageIO, name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}

	return &Object{ReadSeekCloser: f, Name: name, ModTime: info.ModTime()}, nil
}

func (s *LocalStore) Remove(_ context.Context, path string) error {
	name, ok := nameFromPath(path)
	if !ok {
		return ErrNotFound
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: remove %s: %v", ErrStorageIO, name, err)
	}
	return nil
}
