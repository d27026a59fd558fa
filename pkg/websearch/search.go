package websearch

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/alantheprice/codeagent/pkg/utils"
)

const jinaSearchURL = "https://s.jina.ai/search"

// Result is one ranked search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Client queries the Jina search API. An API key is optional; without one the
// requests may be rate limited. The key is resolved lazily on the first
// Search call, so constructing a client never prompts the operator.
type Client struct {
	httpClient *http.Client
	searchURL  string
	apiKey     string
	keyLoaded  bool
	logger     *utils.Logger
}

func NewClient(logger *utils.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		searchURL:  jinaSearchURL,
		logger:     logger,
	}
}

// getAPIKey reads JINA_API_KEY from the environment, prompting once on a
// terminal when unset. An empty key is acceptable.
func getAPIKey(logger *utils.Logger) string {
	if key := os.Getenv("JINA_API_KEY"); key != "" {
		return key
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ""
	}
	logger.LogUserInteraction("Enter Jina API key (press enter to skip): ")
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(keyBytes))
}

// Search returns up to maxResults ranked results for the query.
func (c *Client) Search(query string, maxResults int) ([]Result, error) {
	c.logger.LogProcessStep(fmt.Sprintf("Searching web: %s", query))

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if !c.keyLoaded {
		c.apiKey = getAPIKey(c.logger)
		c.keyLoaded = true
	}

	req, err := http.NewRequest("GET", c.searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	q := req.URL.Query()
	q.Add("q", query)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var searchResponse struct {
		Data []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Content     string `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &searchResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search response: %w", err)
	}

	var results []Result
	for _, item := range searchResponse.Data {
		if len(results) >= maxResults {
			break
		}
		snippet := item.Description
		if snippet == "" {
			snippet = utils.TruncateText(item.Content, 500)
		}
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: snippet,
		})
	}

	c.logger.LogProcessStep(fmt.Sprintf("Found %d search results", len(results)))
	return results, nil
}
