package envfile

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"naasprov/internal/ports"
	"naasprov/internal/types"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const defaultFileMode fs.FileMode = 0o600

// Store is a dotenv file backed StateStore. Every read-modify-write holds an exclusive lock on a sidecar
// "<path>.lock" file and replaces the state file through a rename, so a concurrent reader sees either the
// old or the new content, never a partial write.
type Store struct {
	path     string
	lockPath string

	// ioMu orders file access within the process; mu guards values.
	ioMu   sync.Mutex
	mu     sync.RWMutex
	values map[string]string
}

// Open loads the file at path. A missing file is an empty store; it is created on the first Set.
func Open(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, types.Err(types.ErrStorage, err, "resolve state file %s", path)
	}
	s := &Store{
		path:     abs,
		lockPath: abs + ".lock",
		values:   map[string]string{},
	}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

func (s *Store) Reload(_ context.Context) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	unlock, err := lockFile(s.lockPath, false)
	if err != nil {
		return types.Err(types.ErrStorage, err, "lock state file %s", s.path)
	}
	defer func() {
		_ = unlock()
	}()

	content, _, err := s.read()
	if err != nil {
		return err
	}
	values, err := parse(content)
	if err != nil {
		return types.Err(types.ErrStorage, err, "parse state file %s", s.path)
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

func (s *Store) Set(_ context.Context, updates map[string]string) error {
	if len(updates) == 0 {
		return nil
	}
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	unlock, err := lockFile(s.lockPath, true)
	if err != nil {
		return types.Err(types.ErrStorage, err, "lock state file %s", s.path)
	}
	defer func() {
		_ = unlock()
	}()

	content, mode, err := s.read()
	if err != nil {
		return err
	}
	next := Rewrite(content, updates)
	values, err := parse(next)
	if err != nil {
		return types.Err(types.ErrStorage, err, "parse rewritten state file %s", s.path)
	}
	if err := writeAtomic(s.path, next, mode); err != nil {
		return types.Err(types.ErrStorage, err, "write state file %s", s.path)
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	log.WithFields(log.Fields{"path": s.path, "keys": keys}).Debug("state file updated")
	return nil
}

func (s *Store) read() ([]byte, fs.FileMode, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, defaultFileMode, nil
	}
	if err != nil {
		return nil, 0, types.Err(types.ErrStorage, err, "read state file %s", s.path)
	}
	mode := defaultFileMode
	if st, statErr := os.Stat(s.path); statErr == nil {
		mode = st.Mode().Perm()
	}
	return content, mode, nil
}

func parse(content []byte) (map[string]string, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return map[string]string{}, nil
	}
	return godotenv.Parse(bytes.NewReader(content))
}

// writeAtomic writes data to a temp file next to path, syncs it and renames it over path.
func writeAtomic(path string, data []byte, mode fs.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

var _ ports.StateStore = (*Store)(nil)
