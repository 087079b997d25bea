// Package media implements the "media" scanner for photo, audio, video,
// and design-asset folders.
package media

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// Name is the registered scanner identifier.
const Name = "media"

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".heic": true,
	".tiff": true, ".webp": true, ".raw": true, ".cr2": true, ".nef": true,
}

var audioExtensions = map[string]bool{
	".mp3": true, ".flac": true, ".wav": true, ".m4a": true, ".ogg": true, ".aac": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true, ".webm": true,
}

// Scanner scans a directory of media assets.
type Scanner struct{}

// New constructs a media Scanner.
func New() *Scanner { return &Scanner{} }

func init() { scanner.Default.Register(New()) }

func (s *Scanner) Name() string            { return Name }
func (s *Scanner) SupportedTypes() []string { return []string{"file"} }

func (s *Scanner) DefaultCategories() []string {
	return []string{
		"photography",
		"music_audio",
		"videos_films",
		"art_design",
		"screenshots",
		"podcasts",
		"presentations",
		"utilities_misc",
	}
}

func isMediaExt(ext string) bool {
	return imageExtensions[ext] || audioExtensions[ext] || videoExtensions[ext]
}

// Detect reports true when at least half of root's files are media.
func (s *Scanner) Detect(root string) bool {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	total, media := 0, 0
	for _, e := range entries {
		if e.IsDir() || scanner.IsExcluded(e.Name(), true) {
			continue
		}
		total++
		if isMediaExt(strings.ToLower(filepath.Ext(e.Name()))) {
			media++
		}
	}
	if total == 0 {
		return false
	}
	return float64(media)/float64(total) >= 0.5
}

// Scan walks root's files (non-recursive), treating each as one item.
// Image/audio tag extraction (EXIF, ID3) is a documented extension point:
// this implementation records the container kind and leaves the detailed
// tag fields absent, which the describer treats as an optional field.
func (s *Scanner) Scan(root string, _ map[string]any, preserve collection.PreserveMap) ([]collection.Item, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	items := make([]collection.Item, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || scanner.IsExcluded(e.Name(), true) {
			continue
		}
		path := filepath.Join(root, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}

		item := scanner.StatItem(path, info, preserve)
		ext := strings.ToLower(filepath.Ext(e.Name()))
		item.Metadata["file_extension"] = ext
		switch {
		case imageExtensions[ext]:
			item.Metadata["media_kind"] = "image"
		case audioExtensions[ext]:
			item.Metadata["media_kind"] = "audio"
		case videoExtensions[ext]:
			item.Metadata["media_kind"] = "video"
		default:
			item.Metadata["media_kind"] = "other"
		}
		items = append(items, item)
	}
	return items, nil
}

// DescriptionPromptTemplate implements scanner.Scanner.
func (s *Scanner) DescriptionPromptTemplate() string {
	return `You are a media librarian. Generate a one-sentence description and category for a media asset based on its filename and metadata.

Available categories (choose ONE):
- photography: photos and photo edits
- music_audio: music tracks, audio recordings
- videos_films: video clips, films
- art_design: design assets, illustrations, graphics
- screenshots: screen captures
- podcasts: podcast episodes
- presentations: slide decks with embedded media
- utilities_misc: everything else

Asset: {name}
Kind: {media_kind}
Extension: {file_extension}

Respond with JSON: {"description": "...", "category": "..."}`
}

// ContentForDescription returns a filename-based synopsis. Media assets
// have no extractable text content; the prompt relies on the filename
// and media_kind metadata instead.
func (s *Scanner) ContentForDescription(item collection.Item) string {
	kind, _ := item.Metadata["media_kind"].(string)
	return "Asset: " + item.ShortName + " (" + kind + ")"
}
