package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/saintfish/chardet"
)

// MaxFileSize bounds a single virtual file read from disk.
const MaxFileSize = 1 << 20

// DefaultIgnore lists globs skipped when loading a project directory.
var DefaultIgnore = []string{
	"node_modules/**",
	".git/**",
	"dist/**",
	"**/.DS_Store",
}

// Bundle is the on-disk form of a project in YAML, TOML or JSON.
type Bundle struct {
	Files map[string]string `json:"files" yaml:"files" toml:"files"`
}

// Load reads a project from a directory or a bundle file, picking the format
// from the file extension.
func Load(ctx context.Context, p string) (*Snapshot, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat project: %w", err)
	}
	if info.IsDir() {
		return FromDir(ctx, p, DefaultIgnore)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read project bundle: %w", err)
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".toml":
		return FromTOML(data)
	case ".json":
		return FromJSON(data)
	default:
		return nil, fmt.Errorf("unsupported project bundle %q: want a directory, .yaml, .toml or .json", p)
	}
}

// FromYAML parses a YAML project bundle.
func FromYAML(data []byte) (*Snapshot, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse YAML bundle: %w", err)
	}
	return b.snapshot()
}

// FromTOML parses a TOML project bundle.
func FromTOML(data []byte) (*Snapshot, error) {
	var b Bundle
	if err := toml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse TOML bundle: %w", err)
	}
	return b.snapshot()
}

// FromJSON parses a JSON project bundle.
func FromJSON(data []byte) (*Snapshot, error) {
	var b Bundle
	if err := sonic.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse JSON bundle: %w", err)
	}
	return b.snapshot()
}

func (b Bundle) snapshot() (*Snapshot, error) {
	if len(b.Files) == 0 {
		return nil, ErrNoFiles
	}
	return NewSnapshot(b.Files)
}

// FromDir walks root and loads every text file not matched by an ignore glob.
// Binary files are skipped; text that is not valid UTF-8 is an error naming
// the detected charset.
func FromDir(ctx context.Context, root string, ignore []string) (*Snapshot, error) {
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	var (
		mu    sync.Mutex
		files = map[string]string{}
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ignored(ignore, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignored(ignore, rel) {
			return nil
		}

		content, ok, err := readText(p)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		if !ok {
			return nil
		}

		mu.Lock()
		files[rel] = content
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load project directory: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return NewSnapshot(files)
}

func ignored(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, strings.TrimSuffix(rel, "/")); ok {
			return true
		}
	}
	return false
}

// readText returns the file content, or ok=false for binary files.
func readText(p string) (string, bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", false, err
	}
	if info.Size() > MaxFileSize {
		return "", false, fmt.Errorf("file exceeds %d bytes", MaxFileSize)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", false, err
	}

	if !isText(mimetype.Detect(data)) {
		return "", false, nil
	}
	if !utf8.Valid(data) {
		return "", false, fmt.Errorf("file is not UTF-8 (detected %s)", detectCharset(data))
	}
	return string(data), true, nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "unknown charset"
	}
	return strings.ToLower(result.Charset)
}
