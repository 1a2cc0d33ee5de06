package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// Root markers.
const (
	ConfigFileName = "tillage.yaml"
	MarkerDir      = ".tillage"
)

// ErrRootNotFound is returned when no workspace root exists above a directory.
var ErrRootNotFound = errors.New("root not found")

// FindRoot looks upwards from startDir for a workspace root: a directory
// holding tillage.yaml or a .tillage directory. It returns the absolute path
// of the root.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for dir := abs; ; {
		if hasFile(dir, ConfigFileName) || hasFile(dir, MarkerDir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

// FindConfig returns the path of the nearest tillage.yaml above startDir, or
// "" when there is none.
func FindConfig(startDir string) string {
	root, err := FindRoot(startDir)
	if err != nil {
		return ""
	}
	path := filepath.Join(root, ConfigFileName)
	if !hasFile(root, ConfigFileName) {
		return ""
	}
	return path
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
