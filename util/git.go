package util

import (
	"os"
	"path/filepath"
)

// FindGitRoot walks up from start looking for a .git entry. It returns start
// itself, made absolute, when no repository encloses it.
func FindGitRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for dir := abs; ; {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}
