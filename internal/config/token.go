package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const secretsFileName = "secrets.json"

type secretsFile struct {
	APIToken string `json:"api_token"`
}

// LoadOrCreateToken returns the API token from the secrets file in dataDir,
// generating and persisting a new random token when none exists yet.
func LoadOrCreateToken(dataDir string) (string, error) {
	path := filepath.Join(dataDir, secretsFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		var s secretsFile
		if err := json.Unmarshal(data, &s); err != nil {
			return "", fmt.Errorf("parsing secrets file %s: %w", path, err)
		}
		if token := strings.TrimSpace(s.APIToken); token != "" {
			return token, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading secrets file %s: %w", path, err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	data, err = json.MarshalIndent(secretsFile{APIToken: token}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing secrets file: %w", err)
	}
	return token, nil
}
