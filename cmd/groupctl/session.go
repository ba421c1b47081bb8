package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	sessionDir  = "pilgrimlink"
	sessionFile = "session.toml"
	defaultURL  = "http://localhost:8081"
)

// session is persisted between invocations so later commands reuse the
// token from login or register.
type session struct {
	ServerURL string `toml:"server_url"`
	Token     string `toml:"token"`
	Email     string `toml:"email,omitempty"`
}

func sessionPath() (string, error) {
	if p := os.Getenv("GROUPCTL_SESSION"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sessionDir, sessionFile), nil
}

// loadSession returns an empty session, not an error, when none is saved.
func loadSession() (*session, error) {
	s := &session{ServerURL: defaultURL}
	p, err := sessionPath()
	if err != nil {
		return s, nil
	}
	if _, err := toml.DecodeFile(p, s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read session %s: %w", p, err)
	}
	if s.ServerURL == "" {
		s.ServerURL = defaultURL
	}
	return s, nil
}

func saveSession(s *session) error {
	p, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
