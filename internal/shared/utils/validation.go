package utils

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Project payload limits (in bytes)
const (
	MaxProjectSize = 2 * 1024 * 1024 // 2MB - all file contents together
	MaxFileSize    = 1 * 1024 * 1024 // 1MB - a single file
	MaxMessageSize = 16 * 1024       // 16KB - a message forwarded from a preview
)

const (
	MaxFiles      = 500
	MaxPathLength = 256
)

// VirtualPathPattern allows the characters project files are named with
var VirtualPathPattern = regexp.MustCompile(`^[a-zA-Z0-9@._+/ -]+$`)

// ValidateString requires a non-empty value of at most maxLen runes with no
// NUL bytes
func ValidateString(value, field string, maxLen int) error {
	switch {
	case value == "":
		return fmt.Errorf("%s is required", field)
	case utf8.RuneCountInString(value) > maxLen:
		return fmt.Errorf("%s must not exceed %d characters", field, maxLen)
	case strings.ContainsRune(value, 0):
		return fmt.Errorf("%s contains invalid characters", field)
	}
	return nil
}

// ValidateVirtualPath checks a project file path as submitted by a client.
// Leading "./" and "/" are tolerated; climbing above the root is not.
func ValidateVirtualPath(p string) error {
	if err := ValidateString(p, "path", MaxPathLength); err != nil {
		return err
	}
	if !VirtualPathPattern.MatchString(p) {
		return fmt.Errorf("path %q contains invalid characters", p)
	}

	cleaned := path.Clean(strings.TrimLeft(p, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("path %q escapes the project root", p)
	}
	return nil
}

// ValidateFiles checks a whole project payload against the size limits
func ValidateFiles(files map[string]string) error {
	if len(files) == 0 {
		return fmt.Errorf("project has no files")
	}
	if len(files) > MaxFiles {
		return fmt.Errorf("project has %d files, maximum is %d", len(files), MaxFiles)
	}

	total := 0
	for p, content := range files {
		if err := ValidateVirtualPath(p); err != nil {
			return err
		}
		if len(content) > MaxFileSize {
			return fmt.Errorf("%s is %d bytes, maximum is %d", p, len(content), MaxFileSize)
		}
		total += len(content)
	}
	if total > MaxProjectSize {
		return fmt.Errorf("project is %d bytes, maximum is %d", total, MaxProjectSize)
	}
	return nil
}

// ValidateMessage validates a message forwarded from a preview context
func ValidateMessage(message string) error {
	return ValidateString(message, "message", MaxMessageSize)
}
