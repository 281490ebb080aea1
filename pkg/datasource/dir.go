package datasource

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/faultmock/pkg/value"
)

// DefaultPattern matches every JSON and YAML file below the data directory.
const DefaultPattern = "**/*.{json,yaml,yml}"

// LoadDir reads every file under root matching pattern into a Map. Keys are
// slash-separated paths relative to root, e.g. "users.json" or
// "orders/open.yaml".
func LoadDir(root, pattern string) (Map, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory: %s is not a directory", root)
	}
	return LoadFS(os.DirFS(root), pattern)
}

// LoadFS is LoadDir over an fs.FS.
func LoadFS(fsys fs.FS, pattern string) (Map, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid data pattern %q", pattern)
	}

	// Use doublestar for ** support
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expanding data pattern: %w", err)
	}
	// Sort matches for deterministic ordering
	sort.Strings(matches)

	blobs := make(Map, len(matches))
	for _, name := range matches {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		v, err := Decode(name, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		blobs[name] = v
	}
	return blobs, nil
}

// Decode parses a blob by file extension. Files that are not YAML are
// parsed as JSON.
func Decode(name string, raw []byte) (value.Value, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		var v value.Value
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return value.Value{}, err
		}
		return v, nil
	default:
		return value.Parse(raw)
	}
}
