package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method      string
	Path        string
	Body        string
	Auth        string
	ContentType string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.RequestURI(),
			Body:        body.String(),
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestClientSendsBearerToken(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /moods": `{"moods":["happy"]}`,
	})

	resp, err := ts.client().get(ctx, "/moods")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string][]string
	if err := decodeJSON(resp, &body); err != nil {
		t.Fatal(err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("got %d requests", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer test-token" {
		t.Errorf("auth header = %q", ts.requests[0].Auth)
	}
}

func TestPostPhotoBuildsMultipart(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /recommendations": `{"description":"d","matches":[]}`,
	})

	resp, err := ts.client().postPhoto(ctx, "/recommendations",
		[]byte("jpeg-bytes"), "/photos/beach.jpg", map[string]string{
			"manual_description": "sunset",
			"languages":          "",
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]any
	if err := decodeJSON(resp, &body); err != nil {
		t.Fatal(err)
	}

	req := ts.requests[0]
	if !strings.HasPrefix(req.ContentType, "multipart/form-data") {
		t.Errorf("content type = %q", req.ContentType)
	}
	if !strings.Contains(req.Body, "jpeg-bytes") {
		t.Error("photo bytes missing from body")
	}
	if !strings.Contains(req.Body, `filename="beach.jpg"`) {
		t.Error("photo filename missing from body")
	}
	if !strings.Contains(req.Body, "sunset") {
		t.Error("manual_description field missing from body")
	}
	// Empty fields stay out of the form.
	if strings.Contains(req.Body, `name="languages"`) {
		t.Error("empty languages field included in body")
	}
}

func TestDecodeJSONSurfacesServerError(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	resp, err := ts.client().post(ctx, "/songs", map[string]string{"description": "x"})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var out map[string]any
	err = decodeJSON(resp, &out)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status in message", err)
	}
}
