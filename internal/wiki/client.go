// Package wiki fetches encyclopedia articles and produces altered copies of
// them through a language model.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrPageNotFound is returned when no article exists for a title.
var ErrPageNotFound = errors.New("page not found")

// DefaultBaseURL is the English Wikipedia REST API root.
const DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

const userAgent = "ctxchat/1.0 (https://github.com/fakeyudi/ctxchat)"

var (
	multiSpacePattern = regexp.MustCompile(`[ \t\r\n]+`)
	citePattern       = regexp.MustCompile(`\[\d+\]`)
)

// Page is an article reduced to its paragraph text.
type Page struct {
	Title string
	Text  string
}

// Client reads articles from the REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.BaseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the default 60s-timeout client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.HTTP = h
		}
	}
}

// WithClientLogger sets the client's logger.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a Client for the English Wikipedia.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches the article for topic. A missing article yields
// ErrPageNotFound.
func (c *Client) Lookup(ctx context.Context, topic string) (*Page, error) {
	title := titleSlug(topic)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", ErrPageNotFound)
	}
	endpoint := c.BaseURL + "/page/html/" + url.PathEscape(title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	c.logger.Debug("wiki lookup", zap.String("title", title))
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", title, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, topic)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	page, err := parsePage(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", title, err)
	}
	if page.Title == "" {
		page.Title = strings.ReplaceAll(title, "_", " ")
	}
	return page, nil
}

// titleSlug turns free text into an article path segment.
func titleSlug(topic string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(topic), " "), " ", "_")
}

// parsePage pulls the <title> and the text of every <p> from an article.
func parsePage(doc string) (*Page, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}

	page := &Page{}
	var paragraphs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.Title == "" {
					page.Title = clean(nodeText(n))
				}
				return
			case "p":
				if text := clean(nodeText(n)); text != "" {
					paragraphs = append(paragraphs, text)
				}
				return
			case "script", "style":
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	page.Text = strings.Join(paragraphs, "\n\n")
	return page, nil
}

// nodeText concatenates descendant text, skipping citation markers and
// inline styles.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "sup", "style", "script":
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return sb.String()
}

func clean(s string) string {
	s = citePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))
}
