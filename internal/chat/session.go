// Package chat wraps a single request/response call to a generation endpoint,
// optionally prefixed with file context, and drives interactive sessions on
// top of it.
package chat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fakeyudi/ctxchat/internal/contextfiles"
	"github.com/fakeyudi/ctxchat/internal/llm"
)

var (
	// ErrInvalidTemperature is returned when a temperature falls outside [0, 1].
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 1")
	// ErrGeneration wraps any failure of the underlying generation call.
	ErrGeneration = errors.New("generation failed")
)

// Config holds the per-call generation parameters.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Validate reports whether c can be sent to a generation endpoint.
func (c Config) Validate() error {
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	return validateTemperature(c.Temperature)
}

func validateTemperature(t float64) error {
	if t < 0 || t > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidTemperature, t)
	}
	return nil
}

// Session sends prompts to a Generator. It keeps no conversation state: each
// Ask is an independent single-message request.
type Session struct {
	gen    llm.Generator
	cfg    Config
	logger *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New validates cfg and returns a Session bound to gen.
func New(gen llm.Generator, cfg Config, opts ...Option) (*Session, error) {
	if gen == nil {
		return nil, errors.New("generator must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{gen: gen, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ask sends prompt, preceded by the assembled contents of contextFiles when
// any are given, and returns the generated text. system is optional.
func (s *Session) Ask(ctx context.Context, prompt string, contextFiles []string, system string) (string, error) {
	payload := prompt
	if len(contextFiles) > 0 {
		payload = contextfiles.Build(contextFiles) + "\n\n" + prompt
	}

	req := llm.Request{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: payload}},
	}

	s.logger.Debug("sending prompt",
		zap.String("model", req.Model),
		zap.Int("context_files", len(contextFiles)),
		zap.Int("payload_len", len(payload)),
	)

	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		s.logger.Debug("generation failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return resp, nil
}

// Config returns the session's current generation parameters.
func (s *Session) Config() Config {
	return s.cfg
}

// SetModel changes the model used by later calls.
func (s *Session) SetModel(model string) {
	s.cfg.Model = model
}

// SetMaxTokens changes the output bound used by later calls.
func (s *Session) SetMaxTokens(n int) {
	s.cfg.MaxTokens = n
}

// SetTemperature changes the sampling temperature; it must be within [0, 1].
func (s *Session) SetTemperature(t float64) error {
	if err := validateTemperature(t); err != nil {
		return err
	}
	s.cfg.Temperature = t
	return nil
}
