package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// MarkerDir marks a directory as a studydesk data directory.
const MarkerDir = ".studydesk"

// FindRoot looks upwards from startDir for a data directory indicator:
// a .studydesk directory, a studydesk.yaml file or a notes.csv table.
// It returns the absolute path of the first match.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, MarkerDir) || hasFile(dir, ConfigName+".yaml") || hasFile(dir, "notes.csv") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// DefaultDataDir is ~/.studydesk, or ./.studydesk when the home directory
// is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return MarkerDir
	}
	return filepath.Join(home, MarkerDir)
}

// ResolveDataDir picks the data directory: an explicit path wins, then a
// root found above the working directory, then DefaultDataDir.
func ResolveDataDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if wd, err := os.Getwd(); err == nil {
		if root, err := FindRoot(wd); err == nil {
			return root
		}
	}
	return DefaultDataDir()
}
