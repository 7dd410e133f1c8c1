// Package wikipedia provides a reckon.Tool that searches Wikipedia and returns page summaries.
package wikipedia

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
	"github.com/tidwall/gjson"
)

const (
	ToolName        = "Wikipedia"
	ToolDescription = "A useful tool for searching the internet to find information on various topics."

	// NoResult is returned when the query is empty or nothing matched.
	NoResult = "No good Wikipedia Search Result was found"

	DefaultLanguage  = "en"
	DefaultTopK      = 3
	DefaultMaxChars  = 4000
	DefaultUserAgent = "reckon/1.0 (https://github.com/m-mizutani/reckon)"

	// maxQueryLength is the longest srsearch value the API accepts.
	maxQueryLength = 300

	maxResponseSize = 4 << 20
)

type Tool struct {
	baseURL    string
	language   string
	topK       int
	maxChars   int
	httpClient *http.Client
	userAgent  string
}

var _ reckon.Tool = (*Tool)(nil)

type Option func(*Tool)

// WithBaseURL sets the api.php endpoint. It takes precedence over WithLanguage.
func WithBaseURL(baseURL string) Option {
	return func(t *Tool) {
		t.baseURL = baseURL
	}
}

// WithLanguage selects the Wikipedia edition, e.g. "en" or "ja".
func WithLanguage(lang string) Option {
	return func(t *Tool) {
		t.language = lang
	}
}

// WithTopK sets how many search hits are summarized.
func WithTopK(k int) Option {
	return func(t *Tool) {
		t.topK = k
	}
}

// WithMaxChars caps the length of the returned text in characters.
func WithMaxChars(n int) Option {
	return func(t *Tool) {
		t.maxChars = n
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(t *Tool) {
		t.httpClient = client
	}
}

func WithUserAgent(ua string) Option {
	return func(t *Tool) {
		t.userAgent = ua
	}
}

// New creates the Wikipedia tool.
func New(options ...Option) *Tool {
	t := &Tool{
		language:   DefaultLanguage,
		topK:       DefaultTopK,
		maxChars:   DefaultMaxChars,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.topK <= 0 {
		t.topK = DefaultTopK
	}
	if t.maxChars <= 0 {
		t.maxChars = DefaultMaxChars
	}
	return t
}

func (t *Tool) Spec() reckon.ToolSpec {
	return reckon.ToolSpec{
		Name:        ToolName,
		Description: ToolDescription,
	}
}

func (t *Tool) endpoint() string {
	if t.baseURL != "" {
		return t.baseURL
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", t.language)
}

// Run searches the query and returns "Page: <title>\nSummary: <extract>" blocks separated by blank lines.
func (t *Tool) Run(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return NoResult, nil
	}
	if r := []rune(query); len(r) > maxQueryLength {
		query = string(r[:maxQueryLength])
	}

	titles, err := t.search(ctx, query)
	if err != nil {
		return "", err
	}

	var summaries []string
	var lastErr error
	failed := 0
	for _, title := range titles {
		extract, err := t.extract(ctx, title)
		if err != nil {
			if ctx.Err() != nil {
				return "", goerr.Wrap(ctx.Err(), "Wikipedia lookup canceled", goerr.V("title", title))
			}
			// One broken page should not hide the summaries of the others.
			reckon.LoggerFromContext(ctx).Warn("skip Wikipedia page",
				"title", title,
				"error", err,
			)
			lastErr = err
			failed++
			continue
		}
		if extract == "" {
			continue
		}
		summaries = append(summaries, "Page: "+title+"\nSummary: "+extract)
	}

	if failed > 0 && failed == len(titles) {
		return "", goerr.Wrap(lastErr, "failed to fetch any Wikipedia page", goerr.V("query", query))
	}
	if len(summaries) == 0 {
		return NoResult, nil
	}

	return truncate(strings.Join(summaries, "\n\n"), t.maxChars), nil
}

func (t *Tool) search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{
		"action":        {"query"},
		"list":          {"search"},
		"srsearch":      {query},
		"srlimit":       {strconv.Itoa(t.topK)},
		"srprop":        {""},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	body, err := t.get(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search Wikipedia", goerr.V("query", query))
	}

	var titles []string
	for _, title := range gjson.GetBytes(body, "query.search.#.title").Array() {
		if s := title.String(); s != "" {
			titles = append(titles, s)
		}
		if len(titles) >= t.topK {
			break
		}
	}
	return titles, nil
}

func (t *Tool) extract(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action":        {"query"},
		"prop":          {"extracts"},
		"exintro":       {"1"},
		"explaintext":   {"1"},
		"redirects":     {"1"},
		"titles":        {title},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	body, err := t.get(ctx, params)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch Wikipedia page", goerr.V("title", title))
	}

	page := gjson.GetBytes(body, "query.pages.0")
	if !page.Exists() || page.Get("missing").Bool() || page.Get("invalid").Bool() {
		return "", nil
	}
	return strings.TrimSpace(page.Get("extract").String()), nil
}

func (t *Tool) get(ctx context.Context, params url.Values) ([]byte, error) {
	endpoint := t.endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("endpoint", endpoint))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request", goerr.V("endpoint", endpoint))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response", goerr.V("endpoint", endpoint))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code",
			goerr.V("endpoint", endpoint),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", truncate(string(body), 256)),
		)
	}

	if apiErr := gjson.GetBytes(body, "error.info"); apiErr.Exists() {
		return nil, goerr.New("Wikipedia API error",
			goerr.V("code", gjson.GetBytes(body, "error.code").String()),
			goerr.V("info", apiErr.String()),
		)
	}

	return body, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
