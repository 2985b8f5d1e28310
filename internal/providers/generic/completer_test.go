package generic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

// roundTripFunc allows injecting errors in http.Client
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

var userMsg = []models.Message{{Role: "user", Content: "hi"}}

func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl, _ := w.(http.Flusher)
		for _, l := range lines {
			fmt.Fprintf(w, "%s\n\n", l)
			if fl != nil {
				fl.Flush()
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestGenerate_DoError(t *testing.T) {
	s := &StreamCompleter{client: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("boom")
	})}, apiKey: "k", URL: "http://example.invalid"}

	_, err := s.Generate(context.Background(), userMsg)
	if !errors.Is(err, models.ErrProvider) || !strings.Contains(err.Error(), "failed to execute request") {
		t.Fatalf("expected provider error, got: %v", err)
	}
}

func TestGenerate_Non200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte("bad"))
	}))
	defer ts.Close()
	s := &StreamCompleter{client: ts.Client(), apiKey: "k", URL: ts.URL}

	_, err := s.Generate(context.Background(), userMsg)
	if !errors.Is(err, models.ErrProvider) {
		t.Fatalf("expected provider error, got: %v", err)
	}
	testboil.AssertStringContains(t, err.Error(), "unexpected status code")
	testboil.AssertStringContains(t, err.Error(), "bad")
}

func TestGenerate_CollectsStream(t *testing.T) {
	ts := sseServer(t,
		`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
		`data: {"choices":[{"delta":{"content":"<think>hmm</think>"}}]}`,
		`: keep-alive`,
		`data: {"choices":[{"delta":{"content":" Hello"}}]}`,
		`data: {"choices":[{"delta":{"content":" there"}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"after done"}}]}`,
	)
	s := &StreamCompleter{client: ts.Client(), apiKey: "k", URL: ts.URL}
	got, err := s.Generate(context.Background(), userMsg)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, got, "<think>hmm</think> Hello there")
}

func TestGenerate_EOFWithoutDone(t *testing.T) {
	ts := sseServer(t, `data: {"choices":[{"delta":{"content":"partial"}}]}`)
	s := &StreamCompleter{client: ts.Client(), apiKey: "k", URL: ts.URL}
	got, err := s.Generate(context.Background(), userMsg)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	testboil.FailTestIfDiff(t, got, "partial")
}

func TestGenerate_MultipleChoicesIsError(t *testing.T) {
	ts := sseServer(t, `data: {"choices":[{"delta":{"content":"a"}},{"index":1,"delta":{"content":"b"}}]}`)
	s := &StreamCompleter{client: ts.Client(), apiKey: "k", URL: ts.URL}
	_, err := s.Generate(context.Background(), userMsg)
	if !errors.Is(err, models.ErrProvider) {
		t.Fatalf("expected provider error, got: %v", err)
	}
}

func TestGenerate_ReturnsOnContextCancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer ts.Close()
	s := &StreamCompleter{client: ts.Client(), apiKey: "k", URL: ts.URL}
	models.Generator_Context_Test(t, s)
}

func TestCreateRequest_BodyAndHeaders(t *testing.T) {
	fpen, ppen, temp, top, max := 0.25, 0.75, 0.5, 0.9, 123
	s := &StreamCompleter{
		Model:            "m",
		FrequencyPenalty: &fpen,
		PresencePenalty:  &ppen,
		Temperature:      &temp,
		TopP:             &top,
		MaxTokens:        &max,
		apiKey:           "sekret",
		URL:              "http://example.invalid",
	}
	httpReq, err := s.createRequest(context.Background(), []models.Message{
		{Role: "system", Content: "be nice"},
		{Role: "user", Content: "c"},
	})
	if err != nil {
		t.Fatalf("createRequest err: %v", err)
	}

	testboil.FailTestIfDiff(t, httpReq.Header.Get("Content-Type"), "application/json")
	testboil.FailTestIfDiff(t, httpReq.Header.Get("Authorization"), "Bearer sekret")
	testboil.FailTestIfDiff(t, httpReq.Header.Get("Accept"), "text/event-stream")

	b, _ := io.ReadAll(httpReq.Body)
	var body map[string]any
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("unmarshal body: %v\nbody=%s", err, string(b))
	}
	if v, ok := body["stream"].(bool); !ok || !v {
		t.Fatalf("expected stream=true, got: %T %v", body["stream"], body["stream"])
	}
	if v, ok := body["model"].(string); !ok || v != s.Model {
		t.Fatalf("model mismatch: %v", body["model"])
	}
	if v, ok := body["n"].(float64); !ok || v != 1 {
		t.Fatalf("expected n=1, got: %v", body["n"])
	}
	if v, ok := body["temperature"].(float64); !ok || v != temp {
		t.Fatalf("temp mismatch: %v", body["temperature"])
	}
	if v, ok := body["max_tokens"].(float64); !ok || int(v) != max {
		t.Fatalf("max mismatch: %v", body["max_tokens"])
	}
	msgs, ok := body["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages mismatch: %v", body["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if role, _ := first["role"].(string); role != "system" {
		t.Fatalf("expected first message role system, got: %v", first["role"])
	}
}

func TestHandleStreamChunk_Table(t *testing.T) {
	s := &StreamCompleter{}
	if _, ok := s.handleStreamChunk([]byte("data: [DONE]\n")).(stopEvent); !ok {
		t.Fatal("expected stop event for DONE")
	}
	for _, noop := range []string{"\n", "data: garbage\n", `data: {"choices":[]}`, `data: {"choices":[{"delta":{}}]}`} {
		if ev := s.handleStreamChunk([]byte(noop)); ev != (noopEvent{}) {
			t.Fatalf("expected noop for %q, got: %T %v", noop, ev, ev)
		}
	}
	if ev, ok := s.handleStreamChunk([]byte(`data: {"choices":[{"delta":{"content":"hi"}}]}`)).(string); !ok || ev != "hi" {
		t.Fatalf("expected 'hi', got: %v", ev)
	}
	if _, ok := s.handleStreamChunk([]byte(`data: {"choices":[{"delta":{"content":[1,2]}}]}`)).(error); !ok {
		t.Fatal("expected error for non string content")
	}
}

func TestSetup(t *testing.T) {
	t.Setenv("TEST_API_KEY", "")
	s := &StreamCompleter{}
	if err := s.Setup("TEST_API_KEY", "http://x", "TEST_DEBUG"); err == nil {
		t.Fatal("expected error on missing api key")
	}
	t.Setenv("TEST_API_KEY", "key")
	t.Setenv("TEST_DEBUG", "true")
	if err := s.Setup("TEST_API_KEY", "http://x", "TEST_DEBUG"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testboil.FailTestIfDiff(t, s.URL, "http://x")
	testboil.FailTestIfDiff(t, s.apiKey, "key")
	testboil.FailTestIfDiff(t, s.debug, true)
	if s.client == nil || s.client.Timeout != DefaultTimeout {
		t.Fatalf("expected client with default timeout, got: %+v", s.client)
	}
}
