package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const workspaceDirName = "trend-agent"

// createWorkspace makes a fresh per-run directory under root/trend-agent
func createWorkspace(root string) (string, error) {
	if root == "" {
		root = os.TempDir()
	}
	base := filepath.Join(root, workspaceDirName)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create workspace root: %w", err)
	}
	dir, err := os.MkdirTemp(base, "run-")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	return dir, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
