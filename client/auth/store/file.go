package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
)

// FileStore persists the pair as a JSON document at URL, and serves reads
// from memory. Any afs supported URL works; plain paths are local files.
type FileStore struct {
	mu   sync.RWMutex
	URL  string
	fs   afs.Service
	pair *Pair
}

// NewFileStore creates a Store backed by URL, loading a previously persisted pair.
func NewFileStore(ctx context.Context, URL string) (*FileStore, error) {
	ret := &FileStore{URL: URL, fs: afs.New()}
	if err := ret.load(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

func (f *FileStore) LookupPair(_ context.Context) (*Pair, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.pair == nil {
		return nil, ErrNotFound
	}
	ret := *f.pair
	return &ret, nil
}

func (f *FileStore) SetPair(ctx context.Context, pair *Pair) error {
	if !pair.Valid() {
		return ErrIncompletePair
	}
	stored := *pair
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return err
	}
	if err = f.fs.Upload(ctx, f.URL, 0o600, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	f.pair = &stored
	return nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pair = nil
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil || !exists {
		return err
	}
	if err = f.fs.Delete(ctx, f.URL); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

func (f *FileStore) load(ctx context.Context) error {
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	pair := &Pair{}
	if err = json.Unmarshal(data, pair); err != nil {
		return fmt.Errorf("failed to parse credentials: %w", err)
	}
	// a lone credential is never served
	if pair.Valid() {
		f.pair = pair
	}
	return nil
}
