package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the session as a JSON file on disk. Good enough for a
// single-user gateway; RedisStore covers shared deployments.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir %s: %w", dir, err)
	}
	return &FileStore{path: path}, nil
}

func (fs *FileStore) Save(_ context.Context, session Session) error {
	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(fs.path, sessionBytes, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (fs *FileStore) Load(_ context.Context) (Session, error) {
	sessionBytes, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(sessionBytes, &session); err != nil {
		return Session{}, &StaleSessionError{Reason: fmt.Sprintf("unparsable session file: %s", err)}
	}
	return session, nil
}

func (fs *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
