package mockhttp

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestBuilder_Routes(t *testing.T) {
	t.Parallel()

	srv, capture := New().
		JSON("GET", "/api/status", http.StatusOK, map[string]bool{"setupMode": true}).
		Error("DELETE", "/api/lists/*", http.StatusNotFound, "Could not delete entity: not found", "").
		Build(t)

	resp, err := http.Get(srv.URL + "/api/status?x=1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var got map[string]bool
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !got["setupMode"] {
		t.Errorf("unexpected response %d %v", resp.StatusCode, got)
	}

	req, _ := http.NewRequest("DELETE", srv.URL+"/api/lists/7", strings.NewReader("{}"))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if string(body) != `{"errors":[{"title":"Could not delete entity: not found"}]}` {
		t.Errorf("unexpected envelope %s", body)
	}

	if capture.Count() != 2 {
		t.Fatalf("expected 2 captured requests, got %d", capture.Count())
	}
	last := capture.Last()
	if last.Method != "DELETE" || last.Path != "/api/lists/7" || string(last.Body) != "{}" {
		t.Errorf("unexpected capture %+v", last)
	}
}

func TestBuilder_Unmatched(t *testing.T) {
	t.Parallel()

	srv, capture := New().JSON("GET", "/api/status", http.StatusOK, nil).Build(t)

	resp, err := http.Post(srv.URL+"/api/status", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("method mismatch should 404, got %d", resp.StatusCode)
	}
	if capture.Last().Query != "" {
		t.Errorf("unexpected query %q", capture.Last().Query)
	}
}
