package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/manu-sreesanth/echojournal/internal/analysis/normalize"
	"github.com/manu-sreesanth/echojournal/internal/config"
	"github.com/manu-sreesanth/echojournal/internal/model/persona"
)

// Request describes one model invocation: which intent and persona to speak
// as, the assembled facts and history, and the text to react to.
type Request struct {
	Intent  normalize.Intent
	Persona persona.Persona
	Facts   []*schema.Message
	History []*schema.Message
	Query   string
}

// Service owns the chat model and the compiled prompt chain.
type Service struct {
	cfg   config.AIConfig
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the AI service and compiles the prompt chain.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("facts", true),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{cfg: cfg, chain: runnable}, nil
}

// StreamingEnabled reports whether streamed output is configured.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// HistoryTokenBudget returns the configured prompt history budget.
func (s *Service) HistoryTokenBudget() int {
	return s.cfg.HistoryTokenBudget
}

// Complete runs one model invocation and returns the raw completion text.
// A per-call timeout bounds the invocation; timeouts and transport failures
// both surface as errors so callers can substitute their intent's fallback.
func (s *Service) Complete(ctx context.Context, req Request) (string, error) {
	input, err := s.buildChainInput(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.invokeTimeout())
	defer cancel()

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("AI chain returned no message")
	}

	log.Printf("[ai] completed intent=%s persona=%s length=%d", req.Intent, req.Persona.ID, len(response.Content))
	return response.Content, nil
}

// Stream runs one model invocation and returns the chunk stream. The caller
// owns the reader and must close it.
func (s *Service) Stream(ctx context.Context, req Request) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	input, err := s.buildChainInput(req)
	if err != nil {
		return nil, err
	}

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}

	return stream, nil
}

func (s *Service) buildChainInput(req Request) (map[string]any, error) {
	dispatch, err := BuildDispatch(req.Intent, req.Persona)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("empty query for intent %s", req.Intent)
	}

	return map[string]any{
		"system":  dispatch.System,
		"facts":   req.Facts,
		"history": req.History,
		"query":   req.Query,
	}, nil
}

func (s *Service) invokeTimeout() time.Duration {
	seconds := s.cfg.InvokeTimeoutSeconds
	if seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}
