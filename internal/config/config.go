package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates configuration for the whole service.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Store     StoreConfig
	Mentoring MentoringConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	mentoring, err := loadMentoringConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Store:     StoreConfig{Path: getEnvOrDefault("STORE_PATH", "data/echojournal.db")},
		Mentoring: mentoring,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StoreConfig describes where the SQLite database lives.
type StoreConfig struct {
	Path string
}

// AIConfig describes model credentials and generation settings.
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool

	// HistoryTokenBudget bounds how much conversation history is
	// carried into each prompt.
	HistoryTokenBudget int
	// InvokeTimeoutSeconds bounds a single model call.
	InvokeTimeoutSeconds int
}

// MentoringConfig tunes mentoring sessions.
type MentoringConfig struct {
	// MaxReflections caps follow-up turns inside one session.
	MaxReflections int
	// SampleEntries is how many recent journal entries seed a session.
	SampleEntries int
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a chat model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("missing Ark credentials or model: set ARK_API_KEY + ARK_MODEL, or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	budget := 1400
	if override, err := parseOptionalIntEnv("AI_HISTORY_TOKEN_BUDGET"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		budget = *override
	}

	timeout := 30
	if override, err := parseOptionalIntEnv("AI_INVOKE_TIMEOUT"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	return AIConfig{
		APIKey:               strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:            strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:            strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:                strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:              getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:               getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:          temperature,
		TopP:                 topP,
		MaxTokens:            maxTokens,
		StreamResponse:       stream,
		HistoryTokenBudget:   budget,
		InvokeTimeoutSeconds: timeout,
	}, nil
}

func loadMentoringConfig() (MentoringConfig, error) {
	reflections := 3
	if override, err := parseOptionalIntEnv("MENTORING_MAX_REFLECTIONS"); err != nil {
		return MentoringConfig{}, err
	} else if override != nil && *override > 0 {
		reflections = *override
	}

	samples := 5
	if override, err := parseOptionalIntEnv("MENTORING_SAMPLE_ENTRIES"); err != nil {
		return MentoringConfig{}, err
	} else if override != nil && *override > 0 {
		samples = *override
	}

	return MentoringConfig{MaxReflections: reflections, SampleEntries: samples}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
