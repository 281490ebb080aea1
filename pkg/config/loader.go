package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/faultmock/pkg/route"
	"github.com/getmockd/faultmock/pkg/value"
)

// RouteFilePattern selects route files inside a directory.
const RouteFilePattern = "**/*.{json,yaml,yml}"

const (
	keyDefaults = "defaults"
	keyRoutes   = "routes"
)

// RouteSet is the compiled result of loading one or more route files.
type RouteSet struct {
	// Routes in load order: argument order, then sorted file names within a
	// directory or glob, then declaration order within a file.
	Routes []*route.Definition

	// Defaults from the single file that declares them, or the built-ins.
	Defaults route.Defaults

	// Files lists every file read, in load order.
	Files []string

	// Shadowed names definitions whose method and pattern repeat an earlier
	// one. They can never match.
	Shadowed []string
}

// RouteFile is one parsed route file.
type RouteFile struct {
	Routes   []*route.Definition
	Defaults *route.DefaultsDocument
}

// LoadRoutes loads route files from paths. A path may name a file, a
// directory (searched recursively for JSON and YAML files) or a doublestar
// glob such as "routes/**/*.yaml".
func LoadRoutes(paths ...string) (*RouteSet, error) {
	set := &RouteSet{Defaults: route.BuiltinDefaults()}
	var defaultsFrom string
	seen := make(map[string]string)

	for _, p := range paths {
		files, err := expandRoutePath(p)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			rf, err := LoadRouteFile(file)
			if err != nil {
				return nil, err
			}
			set.Files = append(set.Files, file)

			if rf.Defaults != nil {
				if defaultsFrom != "" {
					return nil, fmt.Errorf("%s: defaults already declared in %s", file, defaultsFrom)
				}
				d, err := route.CompileDefaults(rf.Defaults)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", file, err)
				}
				set.Defaults = d
				defaultsFrom = file
			}

			for _, def := range rf.Routes {
				id := def.Method + " " + def.Path
				if first, dup := seen[id]; dup {
					set.Shadowed = append(set.Shadowed, fmt.Sprintf("%s (%s, first declared in %s)", id, file, first))
				} else {
					seen[id] = file
				}
				set.Routes = append(set.Routes, def)
			}
		}
	}
	return set, nil
}

// expandRoutePath turns one path argument into the files it names.
func expandRoutePath(p string) ([]string, error) {
	if hasGlobMeta(p) {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return nil, fmt.Errorf("invalid route pattern %q", p)
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", p, err)
		}
		sort.Strings(matches)
		return matches, nil
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, statError(p, err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(p), RouteFilePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", p, err)
	}
	sort.Strings(matches)
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(p, filepath.FromSlash(m))
	}
	return files, nil
}

func hasGlobMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func statError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	default:
		return fmt.Errorf("reading %s: %w", path, err)
	}
}

// LoadRouteFile reads and compiles a single route file. The format is chosen
// by extension: .yaml and .yml are YAML, anything else JSON.
func LoadRouteFile(path string) (*RouteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, statError(path, err)
	}
	rf, err := ParseRoutes(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rf, nil
}

// ParseRoutes parses and compiles route file contents. name is only used to
// pick the format.
func ParseRoutes(name string, data []byte) (*RouteFile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	doc, err := decode(name, []byte(ExpandEnvVars(string(data))))
	if err != nil {
		return nil, err
	}
	if err := CheckSchema(doc); err != nil {
		return nil, err
	}

	var (
		items    []value.Value
		defaults *route.DefaultsDocument
		at       = "routes"
	)
	switch {
	case doc.Kind() == value.KindList:
		items, _ = doc.AsList()
	case hasKey(doc, keyRoutes):
		routes, _ := doc.Field(keyRoutes)
		items, _ = routes.AsList()
		if d, ok := doc.Field(keyDefaults); ok && !d.IsNull() {
			defaults, err = decodeDefaults(d)
			if err != nil {
				return nil, err
			}
		}
	default:
		items = []value.Value{doc}
		at = "route"
	}

	rf := &RouteFile{Defaults: defaults}
	for i, item := range items {
		field := at
		if at == "routes" {
			field = fmt.Sprintf("routes[%d]", i)
		}
		rd, err := route.DecodeDocument(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		def, err := route.Compile(rd)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		rf.Routes = append(rf.Routes, def)
	}
	return rf, nil
}

func decode(name string, data []byte) (value.Value, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".yaml" || ext == ".yml" {
		var v value.Value
		if err := yaml.Unmarshal(data, &v); err != nil {
			return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
		}
		return v, nil
	}
	v, err := value.Parse(data)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return v, nil
}

func decodeDefaults(v value.Value) (*route.DefaultsDocument, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var doc route.DefaultsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return &doc, nil
}

func hasKey(v value.Value, key string) bool {
	_, ok := v.Field(key)
	return ok
}
