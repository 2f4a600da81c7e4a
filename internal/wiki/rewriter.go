package wiki

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fakeyudi/ctxchat/internal/llm"
)

// DefaultPercent is how much of an article's modifiable content gets changed.
const DefaultPercent = 60.0

// maxSourceChars caps the article text sent for rewriting.
const maxSourceChars = 4000

// ErrNegativePercent is returned for a modification percentage below zero.
var ErrNegativePercent = errors.New("modification percentage must be non-negative")

const refineSystem = "You convert brief topic descriptions into precise Wikipedia article titles. " +
	"Return only the most likely article title, nothing else."

const rewriteSystem = "You are a precise text modification assistant. You change facts, numbers, names, " +
	"dates and descriptive words in a text to produce a plausible alternate version while keeping its " +
	"structure and coherence."

// Looker finds an article for a topic.
type Looker interface {
	Lookup(ctx context.Context, topic string) (*Page, error)
}

// Result is the outcome of Process.
type Result struct {
	Topic     string
	PageTitle string
	Original  string
	Modified  string
	Percent   float64
}

// Rewriter finds an article and asks the model for an altered copy.
type Rewriter struct {
	gen     llm.Generator
	pages   Looker
	model   string
	percent float64
	logger  *zap.Logger
}

// RewriterOption configures a Rewriter.
type RewriterOption func(*Rewriter)

// WithLogger sets the rewriter's logger.
func WithLogger(l *zap.Logger) RewriterOption {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRewriter returns a Rewriter that modifies DefaultPercent of an article.
func NewRewriter(gen llm.Generator, pages Looker, model string, opts ...RewriterOption) *Rewriter {
	r := &Rewriter{gen: gen, pages: pages, model: model, percent: DefaultPercent, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Percent reports the default modification percentage.
func (r *Rewriter) Percent() float64 { return r.percent }

// SetPercent changes the default modification percentage.
func (r *Rewriter) SetPercent(p float64) error {
	if p < 0 {
		return ErrNegativePercent
	}
	r.percent = p
	return nil
}

// Find looks topic up directly, then through a model-refined title.
func (r *Rewriter) Find(ctx context.Context, topic string) (*Page, error) {
	page, err := r.pages.Lookup(ctx, topic)
	if err == nil {
		return page, nil
	}
	if !errors.Is(err, ErrPageNotFound) {
		return nil, err
	}

	refined := r.RefineTitle(ctx, topic)
	if refined != topic {
		page, err = r.pages.Lookup(ctx, refined)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, ErrPageNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no Wikipedia page found for topic %q: %w", topic, ErrPageNotFound)
}

// RefineTitle asks the model for the likeliest article title. On failure the
// topic is returned unchanged.
func (r *Rewriter) RefineTitle(ctx context.Context, topic string) string {
	resp, err := r.gen.Generate(ctx, llm.Request{
		Model:       r.model,
		MaxTokens:   50,
		Temperature: 0.3,
		System:      refineSystem,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: "What is the most likely Wikipedia article title for: " + topic,
		}},
	})
	if err != nil {
		r.logger.Warn("could not refine search term", zap.String("topic", topic), zap.Error(err))
		return topic
	}
	refined := strings.TrimSpace(resp)
	if refined == "" {
		return topic
	}
	r.logger.Debug("refined title", zap.String("topic", topic), zap.String("title", refined))
	return refined
}

// Modify returns an altered copy of text. A negative percent uses the
// rewriter's default.
func (r *Rewriter) Modify(ctx context.Context, text string, percent float64) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no text to modify")
	}
	if percent < 0 {
		percent = r.percent
	}
	resp, err := r.gen.Generate(ctx, llm.Request{
		Model:       r.model,
		MaxTokens:   4096,
		Temperature: 0.8,
		System:      rewriteSystem,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: rewritePrompt(text, percent)}},
	})
	if err != nil {
		return "", fmt.Errorf("error modifying text: %w", err)
	}
	return strings.TrimSpace(resp), nil
}

// Process finds the article for topic and rewrites it at the default
// percentage.
func (r *Rewriter) Process(ctx context.Context, topic string) (*Result, error) {
	page, err := r.Find(ctx, topic)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(page.Text) == "" {
		return nil, fmt.Errorf("no text content found for: %s", page.Title)
	}
	modified, err := r.Modify(ctx, page.Text, r.percent)
	if err != nil {
		return nil, err
	}
	return &Result{
		Topic:     topic,
		PageTitle: page.Title,
		Original:  page.Text,
		Modified:  modified,
		Percent:   r.percent,
	}, nil
}

func rewritePrompt(text string, percent float64) string {
	if runes := []rune(text); len(runes) > maxSourceChars {
		text = string(runes[:maxSourceChars])
	}
	p := formatPercent(percent)
	lo := formatPercent(percent * 0.5)
	hi := formatPercent(percent * 1.5)

	var sb strings.Builder
	sb.WriteString("Modify the factual content of the following text to create a plausible alternate version.\n\n")
	sb.WriteString("First identify the text's main subject and its domain (war, science, geography, biography, technology, sports and so on).\n\n")
	sb.WriteString("Never change the name of the main subject. Every mention of it stays exactly as written.\n\n")
	fmt.Fprintf(&sb, "Then change roughly %s%% of the other content:\n", p)
	fmt.Fprintf(&sb, "1. Numbers and statistics: shift values up or down by about %s%% (between %s%% and %s%%).\n", p, lo, hi)
	fmt.Fprintf(&sb, "2. Names of people, places and organizations other than the subject: swap about %s%% for similar alternatives.\n", p)
	fmt.Fprintf(&sb, "3. Dates and years: move about %s%% slightly forward or backward.\n", p)
	fmt.Fprintf(&sb, "4. Domain nouns: replace about %s%% with alternatives of the same kind (rifle to machine gun, not rifle to tank).\n", p)
	fmt.Fprintf(&sb, "5. Descriptive words, verbs, roles and nationalities: change about %s%%.\n\n", p)
	sb.WriteString("Keep sentence structure and grammar identical. Keep the changes consistent with each other, ")
	sb.WriteString("plausible to a casual reader but noticeably wrong to an expert. ")
	sb.WriteString("Return only the modified text with no notes or markers.\n\n")
	sb.WriteString("Original text:\n")
	sb.WriteString(text)
	return sb.String()
}

func formatPercent(p float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", p), "0"), ".")
}
