// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package credstore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/courier/lib/codec"
	"github.com/bureau-foundation/courier/lib/sealed"
)

// record is the on-disk document. Version guards future layout
// changes.
type record struct {
	Version int          `cbor:"version"`
	Session *SessionData `cbor:"session,omitempty"`
	Device  DeviceData   `cbor:"device"`
}

const recordVersion = 1

// File is a Store backed by one CBOR file per API space, optionally
// sealed with age. Writes go to a temporary file that is renamed over
// the old one, so a crash leaves either the old or the new record.
type File struct {
	path   string
	sealer sealed.Sealer
	logger *slog.Logger

	mu     sync.Mutex
	cached *record
}

var _ Store = (*File)(nil)

// FileConfig configures a File store.
type FileConfig struct {
	// Directory holds the credential file. Created with 0700 if
	// missing.
	Directory string

	// APISpace scopes the file so several spaces can share a
	// directory.
	APISpace string

	// Sealer encrypts the file contents. Nil stores plain CBOR.
	Sealer sealed.Sealer

	Logger *slog.Logger
}

// NewFile returns a File store for the given API space.
func NewFile(config FileConfig) (*File, error) {
	if config.Directory == "" {
		return nil, errors.New("credstore: directory is required")
	}
	if config.APISpace == "" {
		return nil, errors.New("credstore: API space is required")
	}
	if err := os.MkdirAll(config.Directory, 0o700); err != nil {
		return nil, fmt.Errorf("credstore: creating %s: %w", config.Directory, err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Sealer == nil {
		logger.Warn("credential file is not encrypted", "directory", config.Directory)
	}
	return &File{
		path:   filepath.Join(config.Directory, FileName(config.APISpace)),
		sealer: config.Sealer,
		logger: logger,
	}, nil
}

// FileName derives the credential file name from the API space. The
// space identifier is hashed so it does not appear on disk.
func FileName(apiSpace string) string {
	sum := blake3.Sum256([]byte("courier credentials\x00" + apiSpace))
	return hex.EncodeToString(sum[:16]) + ".cred"
}

// Path returns the credential file path.
func (f *File) Path() string { return f.path }

func (f *File) Session() (*SessionData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.loadLocked()
	if err != nil {
		return nil, err
	}
	if current.Session == nil {
		return nil, nil
	}
	session := *current.Session
	return &session, nil
}

func (f *File) SetSession(session SessionData) error {
	return f.update(func(r *record) { r.Session = &session })
}

func (f *File) ClearSession() error {
	return f.update(func(r *record) { r.Session = nil })
}

func (f *File) Device() (DeviceData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.loadLocked()
	if err != nil {
		return DeviceData{}, err
	}
	return current.Device, nil
}

func (f *File) SetDevice(device DeviceData) error {
	return f.update(func(r *record) { r.Device = device })
}

func (f *File) update(mutate func(*record)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.loadLocked()
	if err != nil {
		return err
	}
	next := *current
	mutate(&next)
	if err := f.writeLocked(&next); err != nil {
		return err
	}
	f.cached = &next
	return nil
}

func (f *File) loadLocked() (*record, error) {
	if f.cached != nil {
		return f.cached, nil
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.cached = &record{Version: recordVersion}
		return f.cached, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credstore: reading %s: %w", f.path, err)
	}
	if f.sealer != nil {
		data, err = f.sealer.Open(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	var loaded record
	if err := codec.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if loaded.Version != recordVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, loaded.Version)
	}
	f.cached = &loaded
	return f.cached, nil
}

func (f *File) writeLocked(r *record) error {
	r.Version = recordVersion
	data, err := codec.Marshal(r)
	if err != nil {
		return fmt.Errorf("credstore: encoding record: %w", err)
	}
	if f.sealer != nil {
		data, err = f.sealer.Seal(data)
		if err != nil {
			return fmt.Errorf("credstore: sealing record: %w", err)
		}
	}

	temp, err := os.CreateTemp(filepath.Dir(f.path), ".cred-*")
	if err != nil {
		return fmt.Errorf("credstore: creating temp file: %w", err)
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath)

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		return fmt.Errorf("credstore: writing %s: %w", tempPath, err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		return fmt.Errorf("credstore: syncing %s: %w", tempPath, err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("credstore: closing %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		return fmt.Errorf("credstore: replacing %s: %w", f.path, err)
	}
	f.logger.Debug("credentials written", "path", f.path, "has_session", r.Session != nil)
	return nil
}
