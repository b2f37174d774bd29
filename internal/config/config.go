// Package config loads and validates the webindex configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SearchMode selects which ranking path a search uses.
type SearchMode string

const (
	SearchModeDense  SearchMode = "dense"
	SearchModeBM25   SearchMode = "bm25"
	SearchModeHybrid SearchMode = "hybrid"
)

// Config is the complete webindex configuration. It mirrors the schema
// in SPEC_FULL.md Section 6.
type Config struct {
	DataRoot string `yaml:"data_root" json:"data_root"`

	AutoIndexing       bool       `yaml:"auto_indexing" json:"auto_indexing"`
	ChunkSize          int        `yaml:"chunk_size" json:"chunk_size"`
	OverlapSize        int        `yaml:"overlap_size" json:"overlap_size"`
	DefaultSearchLimit int        `yaml:"default_search_limit" json:"default_search_limit"`
	SearchMode         SearchMode `yaml:"search_mode" json:"search_mode"`
	EmbeddingDim       int        `yaml:"embedding_dim" json:"embedding_dim"`
	BM25K1             float64    `yaml:"bm25_k1" json:"bm25_k1"`
	BM25B              float64    `yaml:"bm25_b" json:"bm25_b"`
	RRFConstant        int        `yaml:"rrf_constant" json:"rrf_constant"`
	PerModeCandidates  int        `yaml:"per_mode_candidates" json:"per_mode_candidates"`
	InferenceTimeoutMS int        `yaml:"inference_timeout_ms" json:"inference_timeout_ms"`

	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Watch       WatchConfig       `yaml:"watch" json:"watch"`
	MCP         MCPConfig         `yaml:"mcp" json:"mcp"`
	Model       ModelConfig       `yaml:"model" json:"model"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// PerformanceConfig configures worker and cache sizing.
type PerformanceConfig struct {
	IndexWorkers       int `yaml:"index_workers" json:"index_workers"`
	IngestQueueDepth   int `yaml:"ingest_queue_depth" json:"ingest_queue_depth"`
	EmbeddingCacheSize int `yaml:"embedding_cache_size" json:"embedding_cache_size"`
}

// WatchConfig configures the optional fsnotify auto-ingest directory watch.
type WatchConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Dir     string `yaml:"dir" json:"dir"`
}

// MCPConfig configures the MCP server entrypoint.
type MCPConfig struct {
	Transport string `yaml:"transport" json:"transport"`
}

// ModelConfig locates the provisioned ONNX model and vocabulary.
type ModelConfig struct {
	ONNXPath  string `yaml:"onnx_path" json:"onnx_path"`
	VocabPath string `yaml:"vocab_path" json:"vocab_path"`
}

// NewConfig returns a Config populated with the defaults from SPEC_FULL.md §6.
func NewConfig() *Config {
	root := DefaultDataRoot()
	return &Config{
		DataRoot:           root,
		AutoIndexing:       true,
		ChunkSize:          512,
		OverlapSize:        50,
		DefaultSearchLimit: 10,
		SearchMode:         SearchModeHybrid,
		EmbeddingDim:       384,
		BM25K1:             1.2,
		BM25B:              0.75,
		RRFConstant:        60,
		PerModeCandidates:  50,
		InferenceTimeoutMS: 30000,
		Logging: LoggingConfig{
			Level: "info",
		},
		Performance: PerformanceConfig{
			IndexWorkers:       runtime.NumCPU(),
			IngestQueueDepth:   64,
			EmbeddingCacheSize: 2048,
		},
		Watch: WatchConfig{
			Enabled: false,
		},
		MCP: MCPConfig{
			Transport: "stdio",
		},
		Model: ModelConfig{
			ONNXPath:  filepath.Join(root, "model", "model.onnx"),
			VocabPath: filepath.Join(root, "model", "vocab.txt"),
		},
	}
}

// MaxContentTokens returns the Chunker's window size derived from ChunkSize.
func (c *Config) MaxContentTokens() int {
	return c.ChunkSize - 2
}

// Stride returns the Chunker's slide step.
func (c *Config) Stride() int {
	return c.MaxContentTokens() - c.OverlapSize
}

// DefaultDataRoot returns the default data directory under the user's home.
func DefaultDataRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".webindex", "data")
	}
	return filepath.Join(home, ".webindex", "data")
}

// GetUserConfigPath returns the path to the user configuration file,
// following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "webindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "webindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "webindex", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration from defaults, then the user config file (if
// present), then WEBINDEX_* environment variable overrides.
func Load() (*Config, error) {
	cfg := NewConfig()
	defaultRoot := cfg.DataRoot
	defaultModel := cfg.Model

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	cfg.applyEnvOverrides()

	// Model paths left at their defaults follow the effective data root.
	if cfg.DataRoot != defaultRoot {
		if cfg.Model.ONNXPath == defaultModel.ONNXPath {
			cfg.Model.ONNXPath = filepath.Join(cfg.DataRoot, "model", "model.onnx")
		}
		if cfg.Model.VocabPath == defaultModel.VocabPath {
			cfg.Model.VocabPath = filepath.Join(cfg.DataRoot, "model", "vocab.txt")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadUserConfig loads the user configuration file if it exists.
// Returns a nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &parsed, nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.DataRoot != "" {
		c.DataRoot = other.DataRoot
	}
	if other.ChunkSize != 0 {
		c.ChunkSize = other.ChunkSize
	}
	if other.OverlapSize != 0 {
		c.OverlapSize = other.OverlapSize
	}
	if other.DefaultSearchLimit != 0 {
		c.DefaultSearchLimit = other.DefaultSearchLimit
	}
	if other.SearchMode != "" {
		c.SearchMode = other.SearchMode
	}
	if other.EmbeddingDim != 0 {
		c.EmbeddingDim = other.EmbeddingDim
	}
	if other.BM25K1 != 0 {
		c.BM25K1 = other.BM25K1
	}
	if other.BM25B != 0 {
		c.BM25B = other.BM25B
	}
	if other.RRFConstant != 0 {
		c.RRFConstant = other.RRFConstant
	}
	if other.PerModeCandidates != 0 {
		c.PerModeCandidates = other.PerModeCandidates
	}
	if other.InferenceTimeoutMS != 0 {
		c.InferenceTimeoutMS = other.InferenceTimeoutMS
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Performance.IndexWorkers != 0 {
		c.Performance.IndexWorkers = other.Performance.IndexWorkers
	}
	if other.Performance.IngestQueueDepth != 0 {
		c.Performance.IngestQueueDepth = other.Performance.IngestQueueDepth
	}
	if other.Performance.EmbeddingCacheSize != 0 {
		c.Performance.EmbeddingCacheSize = other.Performance.EmbeddingCacheSize
	}
	if other.Watch.Dir != "" {
		c.Watch.Dir = other.Watch.Dir
		c.Watch.Enabled = other.Watch.Enabled
	}
	if other.MCP.Transport != "" {
		c.MCP.Transport = other.MCP.Transport
	}
	if other.Model.ONNXPath != "" {
		c.Model.ONNXPath = other.Model.ONNXPath
	}
	if other.Model.VocabPath != "" {
		c.Model.VocabPath = other.Model.VocabPath
	}
}

// applyEnvOverrides applies WEBINDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WEBINDEX_DATA_ROOT"); v != "" {
		c.DataRoot = v
	}
	if v := os.Getenv("WEBINDEX_SEARCH_MODE"); v != "" {
		c.SearchMode = SearchMode(v)
	}
	if v := os.Getenv("WEBINDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("WEBINDEX_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.RRFConstant = k
		}
	}
	if v := os.Getenv("WEBINDEX_INFERENCE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.InferenceTimeoutMS = ms
		}
	}
	if v := os.Getenv("WEBINDEX_MCP_TRANSPORT"); v != "" {
		c.MCP.Transport = v
	}
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	switch c.SearchMode {
	case SearchModeDense, SearchModeBM25, SearchModeHybrid:
	default:
		return fmt.Errorf("search_mode must be 'dense', 'bm25', or 'hybrid', got %q", c.SearchMode)
	}

	if c.ChunkSize <= 2 {
		return fmt.Errorf("chunk_size must be greater than 2, got %d", c.ChunkSize)
	}
	if c.OverlapSize < 0 || c.OverlapSize >= c.MaxContentTokens() {
		return fmt.Errorf("overlap_size must be in [0, chunk_size-2), got %d", c.OverlapSize)
	}
	if c.DefaultSearchLimit <= 0 {
		return fmt.Errorf("default_search_limit must be positive, got %d", c.DefaultSearchLimit)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding_dim must be positive, got %d", c.EmbeddingDim)
	}
	if c.BM25K1 <= 0 {
		return fmt.Errorf("bm25_k1 must be positive, got %f", c.BM25K1)
	}
	if c.BM25B < 0 || c.BM25B > 1 {
		return fmt.Errorf("bm25_b must be in [0, 1], got %f", c.BM25B)
	}
	if c.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", c.RRFConstant)
	}
	if c.PerModeCandidates <= 0 {
		return fmt.Errorf("per_mode_candidates must be positive, got %d", c.PerModeCandidates)
	}
	if c.InferenceTimeoutMS <= 0 {
		return fmt.Errorf("inference_timeout_ms must be positive, got %d", c.InferenceTimeoutMS)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level)
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.MCP.Transport)] {
		return fmt.Errorf("mcp.transport must be 'stdio' or 'sse', got %q", c.MCP.Transport)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns a nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
