package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sheraliozodov77/youth-telegram-bot/internal/config"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/dedup"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/pinecone"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/services"
)

type fakeEmbedder struct{ vec []float32 }

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

type fakeIndex struct{ snippets []services.Snippet }

func (f fakeIndex) Query(ctx context.Context, vector []float32, topK int) ([]services.Snippet, error) {
	return f.snippets, nil
}

type fakeCompleter struct{ reply string }

func (f fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return f.reply, nil
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Port:            "4000",
		GinMode:         gin.TestMode,
		TopK:            8,
		UpstreamTimeout: time.Second,
		DedupTTL:        time.Minute,
		OTEL:            config.OTELConfig{ServiceName: "youth-telegram-bot"},
	}
}

func newTestRouter(t *testing.T, sender *fakeSender) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	seen := dedup.New(time.Minute)
	t.Cleanup(seen.Stop)

	r := gin.New()
	RegisterRoutes(r, Dependencies{
		Embedder:  fakeEmbedder{vec: []float32{0.1}},
		Index:     fakeIndex{snippets: []services.Snippet{{Score: 0.9, Text: "Apply via the portal."}}},
		Completer: fakeCompleter{reply: "Ariza portal orqali topshiriladi."},
		Sender:    sender,
		Seen:      seen,
	}, testConfig())
	return r
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, &fakeSender{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	r := newTestRouter(t, &fakeSender{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status: %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "not_found" {
		t.Fatalf("code: %q", body["code"])
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r := newTestRouter(t, &fakeSender{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/telegram", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakeSender{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("prometheus exposition expected, got: %.120s", w.Body.String())
	}
}

func TestRouter_WebhookEndToEnd(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRouter(t, sender)

	body := `{"update_id":1,"message":{"message_id":21,"chat":{"id":9},"text":"Qanday hujjatlar kerak?"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/telegram", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", w.Code, w.Body.String())
	}
	if len(sender.sent) != 1 || sender.sent[0] != "Ariza portal orqali topshiriladi." {
		t.Fatalf("sent: %v", sender.sent)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("request id header expected")
	}
}

func TestRouter_BodyLimitRejectsOversizedPayload(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRouter(t, sender)

	big := bytes.Repeat([]byte("a"), (1<<20)+1)
	body := `{"update_id":1,"message":{"message_id":22,"chat":{"id":9},"text":"` + string(big) + `"}}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/telegram", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// The truncated read fails JSON binding, which the webhook treats as an
	// ignorable payload.
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("oversized payload must not reach the pipeline")
	}
}

func TestPineconeIndex_MapsMatchesToSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{"id": "a", "score": 0.91, "metadata": map[string]any{"text": "first"}},
				{"id": "b", "score": 0.84, "metadata": map[string]any{"text": "second"}},
			},
		})
	}))
	defer srv.Close()

	idx := PineconeIndex{Client: pinecone.New(srv.URL, "k", srv.Client())}
	snippets, err := idx.Query(context.Background(), []float32{0.5}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(snippets) != 2 || snippets[0].Text != "first" || snippets[1].Text != "second" {
		t.Fatalf("snippets: %+v", snippets)
	}
	if snippets[0].Score != 0.91 {
		t.Fatalf("score: %v", snippets[0].Score)
	}
}
