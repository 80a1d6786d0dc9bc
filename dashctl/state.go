package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gravitational/trace"

	"github.com/quantfold/tradedash/api"
)

// stateFile persists the session's token pair between dashctl runs.
// NB: racy, does not use file-locking or similar.
type stateFile struct {
	filename string
}

func newStateFile(filename string) *stateFile {
	return &stateFile{filename: filename}
}

func (f *stateFile) GetCredentials() (*api.Credentials, error) {
	payload, err := os.ReadFile(f.filename)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}

	var creds api.Credentials
	if err := json.Unmarshal(payload, &creds); err != nil {
		return nil, trace.Wrap(err)
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return nil, trace.NotFound("state does not contain a token pair")
	}

	return &creds, nil
}

func (f *stateFile) PutCredentials(creds api.Credentials) error {
	payload, err := json.Marshal(&creds)
	if err != nil {
		return trace.Wrap(err)
	}
	if err := os.MkdirAll(filepath.Dir(f.filename), 0700); err != nil {
		return trace.ConvertSystemError(err)
	}
	return trace.ConvertSystemError(os.WriteFile(f.filename, payload, 0600))
}

// Clear removes the stored pair. Removing an absent file is fine.
func (f *stateFile) Clear() error {
	err := os.Remove(f.filename)
	if err != nil && !os.IsNotExist(err) {
		return trace.ConvertSystemError(err)
	}
	return nil
}
