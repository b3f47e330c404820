package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.SourceReader = (*WebReader)(nil)

// WebConfig configures page fetching.
type WebConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// WebReader fetches a page and keeps its readable text.
type WebReader struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// NewWebReader creates a web reader. Zero config fields take defaults.
func NewWebReader(cfg WebConfig) *WebReader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 5 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "chatbot-backend/1.0"
	}
	return &WebReader{
		client:    &http.Client{Timeout: cfg.Timeout},
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
	}
}

func (w *WebReader) Kind() domain.SourceKind {
	return domain.SourceWebPage
}

func (w *WebReader) Read(ctx context.Context, ref string) ([]domain.Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, unreadable(ref, err)
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, unreadable(ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, unreadable(ref, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBytes))
	if err != nil {
		return nil, unreadable(ref, err)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	var title, text string
	switch {
	case strings.Contains(ct, "text/html"), strings.Contains(ct, "application/xhtml"), ct == "":
		title, text, err = extractHTML(string(body))
		if err != nil {
			return nil, unreadable(ref, err)
		}
	case strings.Contains(ct, "text/plain"):
		text = normaliseNewlines(string(body))
	default:
		return nil, unreadable(ref, fmt.Errorf("unsupported content type %q", ct))
	}

	if strings.TrimSpace(text) == "" {
		return nil, unreadable(ref, errors.New("page has no readable text"))
	}

	meta := map[string]string{"format": domain.SourceWebPage.String()}
	if title != "" {
		meta["title"] = title
	}
	return []domain.Segment{{Source: ref, Content: text, Metadata: meta}}, nil
}

// extractHTML returns the page title and its readable blocks, one per line.
func extractHTML(page string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", "", err
	}
	doc.Find("script, style, noscript, nav, footer, form").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	root := doc.Find("main, article")
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var parts []string
	root.Find("h1, h2, h3, h4, p, li, td, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		if t := collapseSpaces(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		if t := collapseSpaces(root.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return title, strings.Join(parts, "\n"), nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
