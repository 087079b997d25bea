package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// DefaultExclusions are directory/file names every bundled scanner skips
// regardless of domain, mirroring the exclusion lists repeated across the
// original Python plugins.
var DefaultExclusions = []string{".git", ".DS_Store", "Thumbs.db", "__pycache__", "node_modules", ".obsidian"}

// StatItem builds a collection.Item from a filesystem entry, filling in
// the core fields every scanner needs (identity, size, timestamps) and
// applying any preserved description/category for that path.
func StatItem(path string, info os.FileInfo, preserve collection.PreserveMap) collection.Item {
	itemType := "file"
	if info.IsDir() {
		itemType = "dir"
	}

	mtime := info.ModTime().UTC()
	item := collection.Item{
		Path:      path,
		ShortName: filepath.Base(path),
		Type:      itemType,
		SizeBytes: info.Size(),
		Created:   mtime, // Go's os.FileInfo has no portable creation time; modtime is the best cross-platform proxy.
		Modified:  mtime,
		Accessed:  mtime,
		Metadata:  map[string]any{},
	}

	if entry, ok := preserve[path]; ok {
		item.Description = entry.Description
		item.Category = entry.Category
	}
	return item
}

// IsExcluded reports whether name matches one of the default exclusions
// or, when excludeHidden is true, starts with a dot.
func IsExcluded(name string, excludeHidden bool) bool {
	if excludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, ex := range DefaultExclusions {
		if name == ex {
			return true
		}
	}
	return false
}

// IsExcludedByGlob reports whether relPath matches any of patterns, using
// doublestar glob syntax (`**` for arbitrary depth) so a collection's
// scanner_config can extend the default exclusion list with
// collection-specific patterns such as "*.tmp" or "build/**".
func IsExcludedByGlob(relPath string, patterns []string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// ExcludePatternsFrom extracts the optional exclude_patterns list from a
// collection's opaque scanner_config map.
func ExcludePatternsFrom(scannerConfig map[string]any) []string {
	raw, ok := scannerConfig["exclude_patterns"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ListSubdirs returns the immediate, non-excluded subdirectories of root.
func ListSubdirs(root string, excludeHidden bool) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if IsExcluded(e.Name(), excludeHidden) {
			continue
		}
		dirs = append(dirs, e)
	}
	return dirs, nil
}

// ReadHeadText reads up to maxBytes of a text file, ignoring decode
// errors the way the original scanners read with errors="ignore".
func ReadHeadText(path string, maxBytes int) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, maxBytes)
	n, _ := f.Read(buf)
	return string(buf[:n])
}
