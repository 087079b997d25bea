// Package config discovers the model provider configuration per the
// precedence documented in spec.md §4.1/§6: an explicit caller path, then
// a fixed search list of collection-local and user-home files, then
// environment variables as a last resort.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/go-collectivist/collectivist/pkg/model"
)

// envPrefix namespaces every environment-variable fallback.
const envPrefix = "LLM"

// searchPaths, relative to the collection root, in precedence order after
// an explicit caller path. ~/.collectivist/config.yaml is appended with
// the resolved home directory at discovery time.
var searchPaths = []string{
	filepath.Join(".collection", "collectivist.yaml"),
	filepath.Join(".collection", "collectivist.md"),
	"collectivist.md",
}

// Config is the discovered, ready-to-use configuration handed to the
// orchestrator. Model is consumed directly by model.New.
type Config struct {
	Model model.Config `mapstructure:"llm"`
}

// Load discovers configuration for root's collection. callerPath, if
// non-empty, takes precedence over every other source. A missing file at
// every candidate path is not an error — env vars and defaults still
// apply.
func Load(root, callerPath string) (*Config, error) {
	path, raw, err := locate(root, callerPath)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", model.DefaultTimeout)

	if len(raw) > 0 {
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(string(raw))); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	bindEnv(v, "llm.provider", "LLM_PROVIDER")
	bindEnv(v, "llm.api_key", "LLM_API_KEY")
	bindEnv(v, "llm.base_url", "LLM_BASE_URL")
	bindEnv(v, "llm.model", "LLM_MODEL")

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = providerAPIKey(cfg.Model.Provider)
	}
	if cfg.Model.Timeout <= 0 {
		cfg.Model.Timeout = model.DefaultTimeout
	}
	return &cfg, nil
}

// bindEnv binds env to key only when the discovered file does not set
// key, so environment variables stay a fallback behind the file.
func bindEnv(v *viper.Viper, key, env string) {
	if v.InConfig(key) {
		return
	}
	_ = v.BindEnv(key, env)
}

// providerAPIKey implements the last-resort provider-specific fallback:
// <PROVIDER>_API_KEY, e.g. OPENAI_API_KEY, ANTHROPIC_API_KEY.
func providerAPIKey(provider string) string {
	if provider == "" {
		return ""
	}
	return os.Getenv(strings.ToUpper(provider) + "_API_KEY")
}

// locate walks the discovery precedence and returns the first file found,
// plus its raw bytes (a markdown file is reduced to its fenced yaml
// block). Returns an empty path and nil bytes, not an error, when nothing
// is found.
func locate(root, callerPath string) (string, []byte, error) {
	candidates := []string{}
	if callerPath != "" {
		candidates = append(candidates, callerPath)
	}
	for _, rel := range searchPaths {
		candidates = append(candidates, filepath.Join(root, rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".collectivist", "config.yaml"))
	}

	for _, path := range candidates {
		raw, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if strings.HasSuffix(path, ".md") {
			raw = extractYAMLBlock(raw)
		}
		return path, raw, nil
	}
	return "", nil, nil
}

// extractYAMLBlock pulls the first ```yaml fenced block out of a markdown
// document, the format `collectivist.md` is authored in.
func extractYAMLBlock(md []byte) []byte {
	const fence = "```yaml"
	text := string(md)
	start := strings.Index(text, fence)
	if start == -1 {
		return nil
	}
	rest := text[start+len(fence):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return nil
	}
	return []byte(rest[:end])
}
