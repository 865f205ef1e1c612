// Package filesystem has helpers for the node's data directory.
package filesystem

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// OwnerReadWriteExec is the mode of directories created by the node.
const OwnerReadWriteExec = 0o700

// GetUserHomeDirectory returns the home directory of the current user.
func GetUserHomeDirectory() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// GetCanonicalPath expands a leading ~ and environment variables and cleans
// the result.
func GetCanonicalPath(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		if home := GetUserHomeDirectory(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(p))
}

// ExistOrCreate creates the directory at path unless it exists and returns
// its canonical form.
func ExistOrCreate(path string) (string, error) {
	path = GetCanonicalPath(path)
	if err := os.MkdirAll(path, OwnerReadWriteExec); err != nil {
		return "", err
	}
	return path, nil
}
