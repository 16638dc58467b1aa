package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const serpAPIBaseURL = "https://serpapi.com/search.json"

// SerpAPIOptions controls how the SerpAPI client is initialised.
type SerpAPIOptions struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

type serpAPIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

var _ Client = (*serpAPIClient)(nil)

// NewSerpAPIClient constructs a Client backed by the SerpAPI Google engine.
func NewSerpAPIClient(opts SerpAPIOptions) (Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("search api key is required")
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = serpAPIBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &serpAPIClient{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

func (c *serpAPIClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	trimmedQuery := strings.TrimSpace(query)
	if trimmedQuery == "" {
		return nil, eris.New("query is required")
	}

	if maxResults <= 0 {
		return nil, eris.New("number of results must be positive")
	}
	if maxResults > 100 {
		// SerpAPI caps a single page at 100 results.
		maxResults = 100
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", trimmedQuery)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(maxResults))
	params.Set("hl", "en")
	params.Set("gl", "us")

	requestURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "building search request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logError(logrus.Fields{"query": trimmedQuery}, err, "requesting search results")
		return nil, eris.Wrap(ErrSearchUnavailable, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logError(logrus.Fields{"query": trimmedQuery}, err, "reading search response")
		return nil, eris.Wrap(ErrSearchUnavailable, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Wrapf(ErrSearchUnavailable, "search provider returned status %d", resp.StatusCode)
		c.logError(logrus.Fields{"query": trimmedQuery, "status": resp.StatusCode}, err, "search request rejected")
		return nil, err
	}

	var payload serpAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logError(logrus.Fields{"query": trimmedQuery}, err, "decoding search response")
		return nil, eris.Wrap(ErrSearchUnavailable, err.Error())
	}

	if payload.Error != "" {
		err := eris.Wrapf(ErrSearchUnavailable, "search provider error: %s", payload.Error)
		c.logError(logrus.Fields{"query": trimmedQuery}, err, "search provider error")
		return nil, err
	}

	results := make([]Result, 0, len(payload.OrganicResults))
	for _, item := range payload.OrganicResults {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			URL:     item.Link,
			Source:  "serpapi",
		})
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{"query": trimmedQuery, "results": len(results)}).Debug("search completed")
	}

	return results, nil
}

func (c *serpAPIClient) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil || err == nil {
		return
	}

	entry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
