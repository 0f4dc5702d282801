package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, LLM_API_KEY, INGEST_CHUNK_SIZE, ...)
//  2. YAML config file (configPath, skipped when empty or absent)
//  3. Hardcoded defaults
//
// Environment variables are mapped by splitting on the first underscore:
//
//	SERVER_PORT            -> server.port
//	LLM_API_KEY            -> llm.api_key
//	VECTORSTORE_PROVIDER   -> vectorstore.provider
//	EMBEDDINGS_BASE_URL    -> embeddings.base_url
//	INGEST_CHUNK_OVERLAP   -> ingest.chunk_overlap
//
// The returned config has passed Validate; a non-nil error means the process
// must not start.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// knownSections limits env loading to our own config tree so unrelated
// process environment (PATH, HOME, ...) is not pulled in.
var knownSections = map[string]bool{
	"server":      true,
	"log":         true,
	"chat":        true,
	"vectorstore": true,
	"embeddings":  true,
	"llm":         true,
	"ingest":      true,
	"rag":         true,
}

// envTransform maps SECTION_FIELD_NAME to section.field_name. The split
// happens on the first underscore only, so compound field names keep their
// underscores (LLM_MAX_TOKENS -> llm.max_tokens).
func envTransform(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) != 2 || !knownSections[parts[0]] {
		return "" // koanf skips keys mapped to the empty string
	}
	// Nested qdrant/chromem fields: VECTORSTORE_QDRANT_HOST -> vectorstore.qdrant.host
	if parts[0] == "vectorstore" {
		for _, sub := range []string{"qdrant_", "chromem_"} {
			if strings.HasPrefix(parts[1], sub) {
				return parts[0] + "." + strings.TrimSuffix(sub, "_") + "." + strings.TrimPrefix(parts[1], sub)
			}
		}
	}
	return parts[0] + "." + parts[1]
}
