package devenv

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const devStatePrefix = "<dev_state>"

var modName = regexp.MustCompile(`(?m)^module *([\w\-_]+)$`)

func isWorkspaceRoot(currentdir string) bool {
	mod, err := os.ReadFile(filepath.Join(currentdir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == "vigil-backend"
}

// GetWorkspaceRoot walks up from the cwd until it finds this module's go.mod.
func GetWorkspaceRoot() (string, error) {
	currentdir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}

	for {
		if isWorkspaceRoot(currentdir) {
			return currentdir, nil
		}
		parent := filepath.Dir(currentdir)
		if parent == currentdir {
			return "", os.ErrNotExist
		}
		currentdir = parent
	}
}

// ResolvePath expands a leading `<dev_state>` into `<workspace root>/dev/.state`,
// any other path is returned as is.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, devStatePrefix) {
		return path, nil
	}

	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}

	statedir := filepath.Join(root, "dev", ".state")
	err = os.MkdirAll(statedir, 0777)
	if err != nil {
		return "", err
	}

	subpath := strings.TrimPrefix(strings.TrimPrefix(path, devStatePrefix), string(os.PathSeparator))
	return filepath.Join(statedir, subpath), nil
}
