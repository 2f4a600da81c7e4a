// Package docgen produces a family of conflicting documents from one base
// passage, for testing how a model behaves when its sources disagree.
package docgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fakeyudi/ctxchat/internal/llm"
)

// ErrEmptyPassage is returned when the base passage is blank.
var ErrEmptyPassage = errors.New("passage is empty")

// DefaultOutputDir is where Save writes when no directory is given.
const DefaultOutputDir = "data"

// Kind names one document variant. Its value is also the saved file's stem.
type Kind string

const (
	KindFocus         Kind = "doc_a" // one character or suspect in focus
	KindContradiction Kind = "doc_b" // a different character, conflicting facts
	KindFaulty        Kind = "doc_c" // internally inconsistent
	KindIrrelevant    Kind = "doc_d" // same topic, different event
	KindMisreport     Kind = "doc_e" // wrong details, or a report about the reports
)

// Kinds lists every variant in generation order.
var Kinds = []Kind{KindFocus, KindContradiction, KindFaulty, KindIrrelevant, KindMisreport}

var descriptions = map[Kind]string{
	KindFocus:         "Primary character focus",
	KindContradiction: "Contradictory alternative",
	KindFaulty:        "Faulty/inconsistent",
	KindIrrelevant:    "Irrelevant but similar",
	KindMisreport:     "Misreporting/meta",
}

// Description is a short human label for k.
func (k Kind) Description() string { return descriptions[k] }

// Document is one generated variant.
type Document struct {
	Kind    Kind
	Content string
}

// Generator asks a model for each document variant.
type Generator struct {
	gen         llm.Generator
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
	out         io.Writer
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the generator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithProgress sets where human-readable progress is written.
func WithProgress(w io.Writer) Option {
	return func(g *Generator) {
		if w != nil {
			g.out = w
		}
	}
}

// WithTemperature overrides the sampling temperature (default 1.0).
func WithTemperature(t float64) Option {
	return func(g *Generator) { g.temperature = t }
}

// New returns a Generator that requests up to 2000 tokens per document.
func New(gen llm.Generator, model string, opts ...Option) *Generator {
	g := &Generator{
		gen:         gen,
		model:       model,
		maxTokens:   2000,
		temperature: 1.0,
		logger:      zap.NewNop(),
		out:         io.Discard,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Focus rewrites the passage around its most prominent character.
func (g *Generator) Focus(ctx context.Context, passage string) (string, error) {
	return g.Generate(ctx, KindFocus, passage)
}

// Contradiction rewrites the passage around a different character with
// conflicting details about the same event.
func (g *Generator) Contradiction(ctx context.Context, passage string) (string, error) {
	return g.Generate(ctx, KindContradiction, passage)
}

// Faulty rewrites the passage with subtle internal inconsistencies.
func (g *Generator) Faulty(ctx context.Context, passage string) (string, error) {
	return g.Generate(ctx, KindFaulty, passage)
}

// Irrelevant writes a topically similar account of a different event.
func (g *Generator) Irrelevant(ctx context.Context, passage string) (string, error) {
	return g.Generate(ctx, KindIrrelevant, passage)
}

// Misreport writes a misreported or meta account of the event.
func (g *Generator) Misreport(ctx context.Context, passage string) (string, error) {
	return g.Generate(ctx, KindMisreport, passage)
}

// Generate produces a single variant of passage.
func (g *Generator) Generate(ctx context.Context, kind Kind, passage string) (string, error) {
	if strings.TrimSpace(passage) == "" {
		return "", ErrEmptyPassage
	}
	instructions, ok := prompts[kind]
	if !ok {
		return "", fmt.Errorf("unknown document kind %q", kind)
	}

	resp, err := g.gen.Generate(ctx, llm.Request{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(instructions, passage)}},
	})
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", kind, err)
	}
	g.logger.Debug("document generated", zap.String("kind", string(kind)), zap.Int("len", len(resp)))
	return resp, nil
}

// GenerateAll produces every variant in Kinds order. The first failure stops
// generation.
func (g *Generator) GenerateAll(ctx context.Context, passage string) ([]Document, error) {
	if strings.TrimSpace(passage) == "" {
		return nil, ErrEmptyPassage
	}
	fmt.Fprintln(g.out, "Generating contradictory documents...")

	docs := make([]Document, 0, len(Kinds))
	for _, kind := range Kinds {
		fmt.Fprintf(g.out, "Generating %s (%s)...\n", kind, kind.Description())
		content, err := g.Generate(ctx, kind, passage)
		if err != nil {
			return docs, err
		}
		docs = append(docs, Document{Kind: kind, Content: content})
	}
	fmt.Fprintln(g.out, "All documents generated successfully!")
	return docs, nil
}

// Save writes each document to <dir>/<kind>.txt, creating dir if needed, and
// returns the written paths in order.
func (g *Generator) Save(dir string, docs []Document) ([]string, error) {
	if dir == "" {
		dir = DefaultOutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		path := filepath.Join(dir, string(d.Kind)+".txt")
		if err := os.WriteFile(path, []byte(d.Content), 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(g.out, "Saved: %s\n", path)
		paths = append(paths, path)
	}
	return paths, nil
}
