//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

type userResponse struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Location  string `json:"location"`
	Returning string `json:"returning"`
}

const defaultAvatar = "http://www.9ori.com/en/media/images/718ccfedf6.jpg"

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("STALKER_BASE_URL", "http://localhost:3000")
	client := &http.Client{Timeout: 10 * time.Second}

	// Unique name per run so reruns against a dirty store still pass.
	name := fmt.Sprintf("Test User %d", time.Now().UnixNano())

	// Create
	status, body := doRequest(t, client, http.MethodPost, baseURL+"/users", map[string]string{"name": name})
	if status != http.StatusCreated {
		t.Fatalf("POST /users status = %d, want 201 (%s)", status, body)
	}
	var created userResponse
	mustDecode(t, body, &created)
	if created.Name != strings.ToLower(name) {
		t.Errorf("name = %q, want lowercased input", created.Name)
	}
	if created.Avatar != defaultAvatar {
		t.Errorf("avatar = %q, want default placeholder", created.Avatar)
	}

	// Create again with the same name: 201 with the existing record.
	status, body = doRequest(t, client, http.MethodPost, baseURL+"/users", map[string]string{"name": name})
	if status != http.StatusCreated {
		t.Fatalf("second POST status = %d, want 201 (%s)", status, body)
	}
	var repeated userResponse
	mustDecode(t, body, &repeated)
	if repeated.ID != created.ID {
		t.Errorf("_id = %q, want existing record %q", repeated.ID, created.ID)
	}

	// Read
	status, body = doRequest(t, client, http.MethodGet, baseURL+"/users/"+created.ID, nil)
	if status != http.StatusOK {
		t.Fatalf("GET /users/%s status = %d, want 200 (%s)", created.ID, status, body)
	}
	var fetched userResponse
	mustDecode(t, body, &fetched)
	if fetched.ID != created.ID || fetched.Name != created.Name {
		t.Errorf("fetched %+v, want the created record", fetched)
	}

	// Update: an explicit empty string is applied, not ignored.
	status, body = doRequest(t, client, http.MethodPut, baseURL+"/users/"+created.ID, map[string]string{"location": ""})
	if status != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200 (%s)", status, body)
	}
	var updated userResponse
	mustDecode(t, body, &updated)
	if updated.Location != "" {
		t.Errorf("location = %q, want empty string", updated.Location)
	}

	// Delete
	status, body = doRequest(t, client, http.MethodDelete, baseURL+"/users/"+created.ID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204 (%s)", status, body)
	}

	// Gone afterwards.
	status, _ = doRequest(t, client, http.MethodGet, baseURL+"/users/"+created.ID, nil)
	if status != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", status)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func doRequest(t *testing.T, client *http.Client, method, url string, payload any) (int, []byte) {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	return resp.StatusCode, body
}

func mustDecode(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
}
