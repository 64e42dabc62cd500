package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

const (
	maxBodyBytes = 2 << 20
	userAgent    = "nota/1.0 (+clinical evidence assistant)"
)

// Fetcher downloads pages and strips them down to readable text. A shared
// rate limiter keeps the web tiers polite regardless of fan-out.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

func New(options Options) *Fetcher {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := options.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	burst := options.Burst
	if burst <= 0 {
		burst = 4
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (f *Fetcher) FetchAndClean(ctx context.Context, pageURL string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", domain.WrapError(domain.ErrSourceUnavailable, "fetch page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", domain.WrapError(domain.ErrSourceUnavailable, "fetch page",
			fmt.Errorf("%s: status %d", pageURL, resp.StatusCode))
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text/plain") {
		return "", domain.WrapError(domain.ErrMalformedSource, "fetch page",
			fmt.Errorf("%s: unsupported content type %q", pageURL, contentType))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", domain.WrapError(domain.ErrSourceUnavailable, "fetch page", err)
	}
	if strings.Contains(contentType, "text/plain") {
		return collapseWhitespace(string(body)), nil
	}
	return ExtractText(string(body))
}

// ExtractText reduces an HTML document to its visible prose. Script, style
// and chrome elements are dropped; block boundaries become newlines.
func ExtractText(rawHTML string) (string, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", domain.WrapError(domain.ErrMalformedSource, "parse html", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElement(n.Data) {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElement(n.Data) {
			b.WriteByte('\n')
		}
	}
	walk(root)

	return collapseWhitespace(b.String()), nil
}

func skippedElement(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "iframe", "svg", "nav", "header", "footer", "aside", "form", "button":
		return true
	}
	return false
}

func blockElement(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "table", "tr", "section", "article", "br",
		"h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
