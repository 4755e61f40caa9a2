package script

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// Ext is the script file extension.
	Ext = ".lua"

	// MainScript is the entry point of a directory script.
	MainScript = "main" + Ext
)

// ReadScript resolves path to an absolute file and reads it. A directory
// resolves to its MainScript.
func ReadScript(path string) (resolved, source string, err error) {
	resolved, err = filepath.Abs(path)
	if err != nil {
		return "", "", &LoadError{Path: path, Err: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", "", &LoadError{Path: path, Err: notFound(err)}
	}
	if info.IsDir() {
		resolved = filepath.Join(resolved, MainScript)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", "", &LoadError{Path: path, Err: notFound(err)}
	}
	return resolved, string(data), nil
}

func notFound(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrScriptNotFound
	}
	return err
}

// ClientName derives a client name from a script path: the file stem, or
// the directory name for directory scripts.
func ClientName(path string) string {
	base := filepath.Base(filepath.Clean(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Discover lists the scripts found directly inside dirs: *.lua files and
// directories holding a MainScript. Missing directories are skipped.
// The result is sorted and free of duplicates.
func Discover(dirs ...string) ([]string, error) {
	seen := make(map[string]bool)
	var found []string

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			switch {
			case entry.IsDir():
				if _, err := os.Stat(filepath.Join(path, MainScript)); err != nil {
					continue
				}
			case filepath.Ext(entry.Name()) != Ext:
				continue
			}
			if !seen[path] {
				seen[path] = true
				found = append(found, path)
			}
		}
	}

	sort.Strings(found)
	return found, nil
}
