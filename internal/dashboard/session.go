package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"energisense/internal/models"
)

// Session is what survives between dashboard runs after a login.
type Session struct {
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
	Email string      `json:"email"`
}

// Store persists the session. Load reports ok=false when there is none.
type Store interface {
	Load() (Session, bool, error)
	Save(Session) error
	Clear() error
}

// FileStore keeps the session as a JSON file readable only by the owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (Session, bool, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, false, fmt.Errorf("decode session %s: %w", s.path, err)
	}
	if sess.Token == "" {
		return Session{}, false, nil
	}
	return sess, true, nil
}

// Save replaces the file atomically with mode 0600.
func (s *FileStore) Save(sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
