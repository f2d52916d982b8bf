// Package news fetches and formats articles from the newsdata.io API.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://newsdata.io/api/1"

const (
	MsgNoTopicNews     = "No news found on this topic."
	MsgNoLatestNews    = "No latest news available."
	MsgNoInterestNews  = "No news found for your selected interests."
	MsgSelectInterests = "Please select your interests first to get personalized news."
)

// Article is one entry of the results array.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	Link        string `json:"link,omitempty"`
}

// Result is a narratable summary plus the articles behind it. Fetch failures
// come back as literal text with no articles.
type Result struct {
	Text     string
	Articles []Article
}

// StatusError reports a non-200 response from the API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return strconv.Itoa(e.Code)
}

// Options configures a Client. Zero sizes fall back to 3 per topic, 5 for
// latest and 2 per interest.
type Options struct {
	BaseURL      string
	APIKey       string
	Language     string
	TopicSize    int
	LatestSize   int
	InterestSize int
	Timeout      time.Duration
	HTTPClient   *http.Client
}

type Client struct {
	baseURL      string
	apiKey       string
	language     string
	topicSize    int
	latestSize   int
	interestSize int
	httpClient   *http.Client
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiKey:       opts.APIKey,
		language:     opts.Language,
		topicSize:    orDefault(opts.TopicSize, 3),
		latestSize:   orDefault(opts.LatestSize, 5),
		interestSize: orDefault(opts.InterestSize, 2),
		httpClient:   opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.language == "" {
		c.language = "en"
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

// Search fetches articles matching a free-text topic.
func (c *Client) Search(ctx context.Context, topic string) Result {
	articles, err := c.fetch(ctx, "news", topic, c.topicSize)
	if err != nil {
		return Result{Text: fmt.Sprintf("Failed to fetch news. Error: %s", err)}
	}
	if len(articles) == 0 {
		return Result{Text: MsgNoTopicNews}
	}
	return Result{Text: Format(articles), Articles: articles}
}

// Latest fetches the newest articles regardless of topic.
func (c *Client) Latest(ctx context.Context) Result {
	articles, err := c.fetch(ctx, "latest", "", c.latestSize)
	if err != nil {
		return Result{Text: fmt.Sprintf("Failed to fetch latest news. Error: %s", err)}
	}
	if len(articles) == 0 {
		return Result{Text: MsgNoLatestNews}
	}
	return Result{Text: Format(articles), Articles: articles}
}

// ForInterests aggregates a few articles per interest under a header. Topics
// that fail or come back empty are skipped.
func (c *Client) ForInterests(ctx context.Context, interests []string) Result {
	if len(interests) == 0 {
		return Result{Text: MsgSelectInterests}
	}

	sections := make([]string, 0, len(interests))
	var all []Article
	for _, topic := range interests {
		articles, err := c.fetch(ctx, "news", topic, c.interestSize)
		if err != nil || len(articles) == 0 {
			continue
		}
		if len(articles) > c.interestSize {
			articles = articles[:c.interestSize]
		}
		sections = append(sections, fmt.Sprintf("\n📰 **%s News:**\n", topic)+formatLines(articles, "\n"))
		all = append(all, articles...)
	}
	if len(sections) == 0 {
		return Result{Text: MsgNoInterestNews}
	}
	return Result{Text: strings.Join(sections, "\n\n"), Articles: all}
}

// Ping checks that the endpoint answers with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetch(ctx, "latest", "", 1)
	return err
}

func (c *Client) fetch(ctx context.Context, endpoint string, query string, size int) ([]Article, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	params.Set("language", c.language)
	params.Set("apikey", c.apiKey)
	params.Set("size", strconv.Itoa(size))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsdata request: %w", withoutURL(err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsdata fetch %s: %w", endpoint, withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var raw response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("newsdata decode: %w", err)
	}
	return raw.Results, nil
}

// withoutURL drops the request URL from transport errors, since it carries
// the API key.
func withoutURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

// Format renders articles the way they are narrated and printed.
func Format(articles []Article) string {
	return formatLines(articles, "\n\n")
}

func formatLines(articles []Article, sep string) string {
	lines := make([]string, 0, len(articles))
	for _, a := range articles {
		lines = append(lines, "🔹 "+a.DisplayTitle()+" - "+a.DisplayDescription())
	}
	return strings.Join(lines, sep)
}

// DisplayTitle substitutes a placeholder for a missing title.
func (a Article) DisplayTitle() string {
	if strings.TrimSpace(a.Title) == "" {
		return "No title"
	}
	return a.Title
}

// DisplayDescription substitutes a placeholder for a missing description.
func (a Article) DisplayDescription() string {
	if strings.TrimSpace(a.Description) == "" {
		return "No description"
	}
	return a.Description
}

type response struct {
	Status  string    `json:"status"`
	Results []Article `json:"results"`
}

func orDefault(v int, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
