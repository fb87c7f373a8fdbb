package apiclient

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CredentialProvider stores the bearer token used for backend calls.
type CredentialProvider interface {
	Token() string
	SetToken(token string)
	ClearToken()
}

// MemoryCredentials keeps the token in process memory.
type MemoryCredentials struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryCredentials returns a provider seeded with token (may be empty).
func NewMemoryCredentials(token string) *MemoryCredentials {
	return &MemoryCredentials{token: strings.TrimSpace(token)}
}

func (m *MemoryCredentials) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *MemoryCredentials) SetToken(token string) {
	m.mu.Lock()
	m.token = strings.TrimSpace(token)
	m.mu.Unlock()
}

func (m *MemoryCredentials) ClearToken() {
	m.SetToken("")
}

// FileCredentials persists the token in a file readable only by the owner,
// so the CLI stays logged in between runs. Write failures are logged and the
// in-memory copy stays authoritative for the process.
type FileCredentials struct {
	path string
	mem  MemoryCredentials
}

// NewFileCredentials loads the token stored at path, if any.
func NewFileCredentials(path string) (*FileCredentials, error) {
	fc := &FileCredentials{path: path}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fc.mem.SetToken(string(data))
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	return fc, nil
}

// Path returns the token file location.
func (f *FileCredentials) Path() string { return f.path }

func (f *FileCredentials) Token() string { return f.mem.Token() }

// Seed sets a token for this process only. The file is left alone, so a
// token from the environment never ends up on disk.
func (f *FileCredentials) Seed(token string) {
	f.mem.SetToken(token)
}

func (f *FileCredentials) SetToken(token string) {
	f.mem.SetToken(token)
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		slog.Warn("token dir not writable", "path", f.path, "error", err)
		return
	}
	if err := os.WriteFile(f.path, []byte(f.mem.Token()), 0o600); err != nil {
		slog.Warn("token not persisted", "path", f.path, "error", err)
	}
}

func (f *FileCredentials) ClearToken() {
	f.mem.ClearToken()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("token file not removed", "path", f.path, "error", err)
	}
}
