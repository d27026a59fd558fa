package websearch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alantheprice/codeagent/pkg/utils"
)

func searchLogger(t *testing.T) *utils.Logger {
	t.Helper()
	logger := utils.NewLogger(t.TempDir(), true)
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestNewClientDoesNotResolveKey(t *testing.T) {
	t.Setenv("JINA_API_KEY", "unused")

	c := NewClient(searchLogger(t))

	if c.keyLoaded {
		t.Error("constructing a client must not resolve the API key")
	}
}

func TestSearchResolvesKeyOnFirstUse(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"data": [{"title": "Structlog docs", "url": "https://example.com", "description": "configuring structlog"}]}`)
	}))
	defer srv.Close()

	c := NewClient(searchLogger(t))
	c.searchURL = srv.URL

	// The key is only read when a search actually happens, so a value set
	// after construction is still picked up.
	t.Setenv("JINA_API_KEY", "key-123")

	results, err := c.Search("structlog usage", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Structlog docs" {
		t.Fatalf("results = %+v", results)
	}
	if auth[0] != "Bearer key-123" {
		t.Errorf("first request auth = %q, want Bearer key-123", auth[0])
	}

	// The key is resolved once and reused.
	t.Setenv("JINA_API_KEY", "other")
	if _, err := c.Search("second query", 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if auth[1] != "Bearer key-123" {
		t.Errorf("second request auth = %q, want Bearer key-123", auth[1])
	}
}

func TestSearchEmptyQuerySkipsKeyLoad(t *testing.T) {
	c := NewClient(searchLogger(t))

	results, err := c.Search("   ", 5)
	if err != nil || results != nil {
		t.Fatalf("empty query should be a no-op, got %v, %v", results, err)
	}
	if c.keyLoaded {
		t.Error("empty query must not trigger key resolution")
	}
}

func TestSearchCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [
			{"title": "a", "url": "u1", "description": "d1"},
			{"title": "b", "url": "u2", "description": "d2"},
			{"title": "c", "url": "u3", "description": "d3"}
		]}`)
	}))
	defer srv.Close()

	c := NewClient(searchLogger(t))
	c.searchURL = srv.URL
	t.Setenv("JINA_API_KEY", "")

	results, err := c.Search("anything", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}
