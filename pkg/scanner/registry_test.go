package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

type stubScanner struct {
	name   string
	detect bool
}

func (s *stubScanner) Name() string                 { return s.name }
func (s *stubScanner) SupportedTypes() []string      { return []string{"dir"} }
func (s *stubScanner) DefaultCategories() []string   { return []string{"a", "misc"} }
func (s *stubScanner) Detect(root string) bool       { return s.detect }
func (s *stubScanner) DescriptionPromptTemplate() string { return "{content}" }
func (s *stubScanner) ContentForDescription(collection.Item) string { return "" }
func (s *stubScanner) Scan(string, map[string]any, collection.PreserveMap) ([]collection.Item, error) {
	return nil, nil
}

func TestRegistryAutoDetectSkipsFallbackUntilNoMatch(t *testing.T) {
	r := New()
	r.Register(&stubScanner{name: "repositories", detect: false})
	r.Register(&stubScanner{name: "media", detect: true})
	r.RegisterFallback(&stubScanner{name: "fallback", detect: true})

	s, ok := r.AutoDetect("/tmp")
	require.True(t, ok)
	assert.Equal(t, "media", s.Name())
}

func TestRegistryAutoDetectFallsBackWhenNoneMatch(t *testing.T) {
	r := New()
	r.Register(&stubScanner{name: "repositories", detect: false})
	r.RegisterFallback(&stubScanner{name: "fallback", detect: true})

	s, ok := r.AutoDetect("/tmp")
	require.True(t, ok)
	assert.Equal(t, "fallback", s.Name())
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := New()
	r.Register(&stubScanner{name: "repositories", detect: false})
	r.Register(&stubScanner{name: "repositories", detect: true})

	assert.Equal(t, []string{"repositories"}, r.Names())
	s, ok := r.Get("repositories")
	require.True(t, ok)
	assert.True(t, s.Detect(""))
}

func TestRegistryGetMissing(t *testing.T) {
	r := New()
	_, ok := r.Get("nope")
	assert.False(t, ok)
}
