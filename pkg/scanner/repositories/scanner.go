// Package repositories implements the "repositories" scanner: a
// collection whose items are git checkouts. Each item's metadata carries
// a git_status drawn from the canonical ASCII alphabet (see
// spec.md §9 Open Questions — the emoji alphabet the original tool also
// emitted is dropped).
package repositories

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-collectivist/collectivist/pkg/collection"
	"github.com/go-collectivist/collectivist/pkg/scanner"
)

// Name is the registered scanner identifier.
const Name = "repositories"

// GitStatus values, kept as string constants so render/metadata stay
// plain data. "up_to_date" and friends mirror spec.md §3's enumeration.
const (
	GitStatusUpToDate        = "up_to_date"
	GitStatusUpdatesAvailable = "updates_available"
	GitStatusError           = "error"
	GitStatusNoRemote        = "no_remote"
	GitStatusNotARepo        = "not_a_repo"
)

// gitTimeout bounds every subprocess call so one unreachable remote can't
// stall the whole scan stage.
const gitTimeout = 10 * time.Second

// Scanner scans a directory of git checkouts.
type Scanner struct{}

// New constructs a repositories Scanner.
func New() *Scanner { return &Scanner{} }

func init() { scanner.Default.Register(New()) }

func (s *Scanner) Name() string            { return Name }
func (s *Scanner) SupportedTypes() []string { return []string{"dir"} }

func (s *Scanner) DefaultCategories() []string {
	return []string{
		"ai_llm_agents",
		"terminal_ui",
		"creative_aesthetic",
		"dev_tools",
		"esoteric_experimental",
		"system_infrastructure",
		"phext_hyperdimensional",
		"utilities_misc",
	}
}

// Detect reports true when at least half of root's non-hidden
// subdirectories are git checkouts.
func (s *Scanner) Detect(root string) bool {
	dirs, err := scanner.ListSubdirs(root, true)
	if err != nil || len(dirs) == 0 {
		return false
	}
	gitRepos := 0
	for _, d := range dirs {
		if isGitRepo(filepath.Join(root, d.Name())) {
			gitRepos++
		}
	}
	return float64(gitRepos)/float64(len(dirs)) >= 0.5
}

func isGitRepo(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

// Scan walks root's immediate subdirectories, treating each as one item.
// scannerConfig may carry an exclude_patterns list of doublestar globs
// (matched against the subdirectory name) beyond the default exclusions.
func (s *Scanner) Scan(root string, scannerConfig map[string]any, preserve collection.PreserveMap) ([]collection.Item, error) {
	dirs, err := scanner.ListSubdirs(root, true)
	if err != nil {
		return nil, err
	}
	excludePatterns := scanner.ExcludePatternsFrom(scannerConfig)

	items := make([]collection.Item, 0, len(dirs))
	for _, d := range dirs {
		if scanner.IsExcludedByGlob(d.Name(), excludePatterns) {
			continue
		}
		path := filepath.Join(root, d.Name())
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		item := scanner.StatItem(path, info, preserve)
		status, gitErr := checkGitStatus(path)
		item.Metadata["git_status"] = status
		if gitErr != "" {
			item.Metadata["git_error"] = gitErr
		}
		items = append(items, item)
	}
	return items, nil
}

// checkGitStatus mirrors repository_scanner.py's check_git_status: not a
// repo, no configured remote, missing upstream tracking, or a fetch
// followed by a local/remote divergence check.
func checkGitStatus(repoPath string) (status, errText string) {
	if !isGitRepo(repoPath) {
		return GitStatusNotARepo, ""
	}

	if err := runGit(repoPath, "config", "--get", "remote.origin.url"); err != nil {
		return GitStatusNoRemote, ""
	}

	if err := runGit(repoPath, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}"); err != nil {
		return GitStatusError, "no upstream configured"
	}

	if err := runGit(repoPath, "fetch", "--quiet"); err != nil {
		return GitStatusError, "fetch failed"
	}

	local, err := gitOutput(repoPath, "rev-parse", "HEAD")
	if err != nil {
		return GitStatusError, err.Error()
	}
	remote, err := gitOutput(repoPath, "rev-parse", "@{u}")
	if err != nil {
		return GitStatusError, err.Error()
	}

	if strings.TrimSpace(local) == strings.TrimSpace(remote) {
		return GitStatusUpToDate, ""
	}
	return GitStatusUpdatesAvailable, ""
}

func runGit(repoPath string, args ...string) error {
	_, err := gitOutput(repoPath, args...)
	return err
}

func gitOutput(repoPath string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()
	full := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	out, err := cmd.Output()
	return string(out), err
}

// DescriptionPromptTemplate implements scanner.Scanner.
func (s *Scanner) DescriptionPromptTemplate() string {
	return `You are a developer-tools cataloger. Generate a one-sentence description and category for a git repository based on its README and metadata.

Available categories (choose ONE):
- ai_llm_agents: AI/LLM tooling, agents, and model-integration projects
- terminal_ui: terminal UIs, TUI frameworks, CLI chrome
- creative_aesthetic: generative art, visual/audio creative tools
- dev_tools: developer tooling, build systems, libraries
- esoteric_experimental: experiments, esolangs, research prototypes
- system_infrastructure: infrastructure, orchestration, systems software
- phext_hyperdimensional: phext/hyperdimensional-text related projects
- utilities_misc: everything else

Repository: {name}
Git status: {git_status}

Content:
{content}

Respond with JSON: {"description": "...", "category": "..."}`
}

// ContentForDescription returns up to scanner.MaxContentGraphemes bytes
// of the repository's README, or a short synthetic summary if none.
func (s *Scanner) ContentForDescription(item collection.Item) string {
	for _, name := range []string{"README.md", "README.rst", "README.txt", "README"} {
		candidate := filepath.Join(item.Path, name)
		if _, err := os.Stat(candidate); err == nil {
			return scanner.ReadHeadText(candidate, scanner.MaxContentGraphemes)
		}
	}
	return "Repository: " + item.ShortName
}
