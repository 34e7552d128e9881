package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envBrainsimDataDir = "BRAINSIM_DATA_DIR"
)

// resolveStorePath chooses the run database path: the flag wins, then the
// config file (already folded into the flag variable), then the data
// directory from the environment, then the user cache directory. The parent
// directory is created when the path is derived rather than given.
func resolveStorePath(flagValue string) (string, error) {
	flagValue = strings.TrimSpace(flagValue)
	if flagValue != "" {
		return filepath.Clean(flagValue), nil
	}

	dataDir := strings.TrimSpace(os.Getenv(envBrainsimDataDir))
	if dataDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("no --store given and no cache directory available: %w", err)
		}
		dataDir = filepath.Join(cacheDir, "brainsim")
	}

	path := filepath.Join(dataDir, "runs.db")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// resolveTraceOut resolves the output path for a trace file. An explicit
// flag is used as-is; otherwise the trace lands next to the run database
// as <runName>.bst.
func resolveTraceOut(outFlag, runName string) (string, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag != "" {
		outPath := filepath.Clean(outFlag)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return "", err
		}
		return outPath, nil
	}

	if strings.ContainsAny(runName, `/\`) || runName == "" || runName == "." {
		return "", fmt.Errorf("invalid run name for trace file: %q", runName)
	}

	dataDir := strings.TrimSpace(os.Getenv(envBrainsimDataDir))
	if dataDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(cacheDir, "brainsim")
	}
	path := filepath.Join(dataDir, runName+".bst")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}
