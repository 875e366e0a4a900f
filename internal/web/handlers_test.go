package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/db"
	"github.com/hpungsan/parley/internal/gateway"
	"github.com/hpungsan/parley/internal/host/hosttest"
	"github.com/hpungsan/parley/internal/ops"
)

const longEnglish = "The quarterly report shows steady growth across every region, " +
	"with particular strength in the northern markets where new partnerships " +
	"doubled the number of active customers since the spring."

func setupTest(t *testing.T, h *hosttest.Host) *Handlers {
	t.Helper()
	if h == nil {
		h = hosttest.New(map[string]string{
			"Bonjour le monde": "fr",
			longEnglish:        "en",
		})
	}

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	opts := ops.Options{Journal: db.NewJournal(database)}
	session := ops.NewSession(gateway.New(h.Surface()), conversation.NewStore(), opts)

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}

	return &Handlers{
		session:  session,
		db:       database,
		renderer: NewRenderer(templateSub, "test", nil),
	}
}

// send submits a message through the session and returns its id.
func send(t *testing.T, h *Handlers, text string) string {
	t.Helper()
	out, err := h.session.Send(context.Background(), ops.SendInput{Text: text})
	if err != nil {
		t.Fatalf("send %q: %v", text, err)
	}
	return out.ID
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// --- HandleConversation ---

func TestHandleConversation_Empty(t *testing.T) {
	h := setupTest(t, nil)

	rec := httptest.NewRecorder()
	h.HandleConversation(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "No messages yet") {
		t.Error("expected empty state")
	}
	if !strings.Contains(body, "<html") {
		t.Error("expected full layout")
	}
}

func TestHandleConversation_DetectedFrench(t *testing.T) {
	h := setupTest(t, nil)
	send(t, h, "Bonjour le monde")

	rec := httptest.NewRecorder()
	h.HandleConversation(rec, httptest.NewRequest("GET", "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "Bonjour le monde") {
		t.Error("expected message text")
	}
	if !strings.Contains(body, "Detected: French") {
		t.Error("expected 'Detected: French'")
	}
	if !strings.Contains(body, `<option value="fr" disabled>French</option>`) {
		t.Error("expected own language target to be disabled")
	}
	if strings.Contains(body, "/summarize") {
		t.Error("summarize should not be offered for French text")
	}
}

func TestHandleConversation_HTMXContentOnly(t *testing.T) {
	h := setupTest(t, nil)
	send(t, h, "Bonjour le monde")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleConversation(rec, req)

	body := rec.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("htmx request should not include the layout")
	}
	if !strings.Contains(body, "Detected: French") {
		t.Error("expected content block")
	}
}

func TestHandleConversation_Unavailable(t *testing.T) {
	host := hosttest.New(nil)
	host.Translator = nil
	h := setupTest(t, host)

	rec := httptest.NewRecorder()
	h.HandleConversation(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<li>Translator API</li>") {
		t.Error("expected missing capability listed")
	}
	if strings.Contains(body, `action="/messages"`) {
		t.Error("composer should not be rendered while unavailable")
	}
}

// --- HandleSend ---

func TestHandleSend_Redirects(t *testing.T) {
	h := setupTest(t, nil)

	rec := httptest.NewRecorder()
	h.HandleSend(rec, postForm("/messages", url.Values{"text": {"  Bonjour le monde  "}}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	snap := h.session.Store().Snapshot()
	if len(snap.Messages) != 1 || snap.Messages[0].Text != "Bonjour le monde" {
		t.Errorf("messages = %+v, want one trimmed message", snap.Messages)
	}
}

func TestHandleSend_EmptyIsNoOp(t *testing.T) {
	h := setupTest(t, nil)

	rec := httptest.NewRecorder()
	h.HandleSend(rec, postForm("/messages", url.Values{"text": {"   "}}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if h.session.Store().Len() != 0 {
		t.Error("empty input should not add a message")
	}
}

func TestHandleSend_EmptyJSON(t *testing.T) {
	h := setupTest(t, nil)

	req := postForm("/messages", url.Values{"text": {""}})
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleSend(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"]["code"] != "INVALID_REQUEST" {
		t.Errorf("code = %v, want INVALID_REQUEST", resp["error"]["code"])
	}
}

func TestHandleSend_JSON(t *testing.T) {
	h := setupTest(t, nil)

	req := postForm("/messages", url.Values{"text": {"Bonjour le monde"}})
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleSend(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out ops.SendOutput
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Language != "fr" || out.LanguageName != "French" || out.ID == "" {
		t.Errorf("out = %+v", out)
	}
}

func TestHandleSend_HTMX(t *testing.T) {
	h := setupTest(t, nil)

	req := postForm("/messages", url.Values{"text": {"Bonjour le monde"}})
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleSend(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Detected: French") {
		t.Error("htmx send should return the refreshed conversation")
	}
}

// --- HandleSummarize ---

func TestHandleSummarize(t *testing.T) {
	host := hosttest.New(map[string]string{longEnglish: "en"})
	host.Summarizer.Fn = func(context.Context, string) (string, error) {
		return "- **growth** in every region", nil
	}
	h := setupTest(t, host)
	id := send(t, h, longEnglish)

	rec := httptest.NewRecorder()
	h.HandleConversation(rec, httptest.NewRequest("GET", "/", nil))
	if !strings.Contains(rec.Body.String(), "/messages/"+id+"/summarize") {
		t.Fatal("summarize should be offered for long English text")
	}

	req := httptest.NewRequest("POST", "/messages/"+id+"/summarize", nil)
	req.SetPathValue("id", id)
	rec = httptest.NewRecorder()
	h.HandleSummarize(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleConversation(rec, httptest.NewRequest("GET", "/", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>growth</strong>") {
		t.Error("summary should be rendered as markdown")
	}
	if strings.Contains(body, "/messages/"+id+"/summarize") {
		t.Error("summarize should be hidden once summarized")
	}
}

func TestHandleSummarize_NotFound(t *testing.T) {
	h := setupTest(t, nil)

	req := httptest.NewRequest("POST", "/messages/nope/summarize", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	h.HandleSummarize(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "message not found") {
		t.Error("expected error page message")
	}
}

// --- HandleTranslate ---

func TestHandleTranslate(t *testing.T) {
	h := setupTest(t, nil)
	id := send(t, h, "Bonjour le monde")

	req := postForm("/messages/"+id+"/translate", url.Values{"target": {"en"}})
	req.SetPathValue("id", id)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleTranslate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var out ops.TranslateOutput
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Translation != "[en] Bonjour le monde" {
		t.Errorf("Translation = %q", out.Translation)
	}

	rec = httptest.NewRecorder()
	h.HandleConversation(rec, httptest.NewRequest("GET", "/", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "[en] Bonjour le monde") {
		t.Error("translation should be rendered")
	}
	if !strings.Contains(body, `<option value="en" disabled>English</option>`) {
		t.Error("translated target should be disabled")
	}
}

func TestHandleTranslate_UnsupportedPairShowsBanner(t *testing.T) {
	host := hosttest.New(map[string]string{"Bonjour le monde": "fr"})
	host.Translator.Unsupported = map[string]bool{hosttest.Pair("fr", "es"): true}
	h := setupTest(t, host)
	id := send(t, h, "Bonjour le monde")

	req := postForm("/messages/"+id+"/translate", url.Values{"target": {"es"}})
	req.SetPathValue("id", id)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleTranslate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Translation from French to Spanish is not supported") {
		t.Errorf("expected banner in body:\n%s", body)
	}
	if strings.Contains(body, `<p class="busy">Translating...</p>`) {
		t.Error("translating flag should be cleared")
	}

	msg, _ := h.session.Store().Get(id)
	if len(msg.Translations) != 0 {
		t.Error("store should be untouched")
	}
}

func TestHandleTranslate_UnsupportedPairJSON(t *testing.T) {
	host := hosttest.New(map[string]string{"Bonjour le monde": "fr"})
	host.Translator.Unsupported = map[string]bool{hosttest.Pair("fr", "es"): true}
	h := setupTest(t, host)
	id := send(t, h, "Bonjour le monde")

	req := postForm("/messages/"+id+"/translate", url.Values{"target": {"es"}})
	req.SetPathValue("id", id)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleTranslate(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestHandleTranslate_OwnLanguage(t *testing.T) {
	h := setupTest(t, nil)
	id := send(t, h, "Bonjour le monde")

	req := postForm("/messages/"+id+"/translate", url.Values{"target": {"fr"}})
	req.SetPathValue("id", id)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleTranslate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `class="error-message"`) {
		t.Error("expected htmx error fragment")
	}
}

// --- HandleDismissError ---

func TestHandleDismissError(t *testing.T) {
	host := hosttest.New(map[string]string{"Bonjour le monde": "fr"})
	host.Translator.Fn = func(context.Context, string, string, string) (string, error) {
		return "", fmt.Errorf("quota exceeded")
	}
	h := setupTest(t, host)
	id := send(t, h, "Bonjour le monde")
	_, _ = h.session.Translate(context.Background(), ops.TranslateInput{ID: id, Target: "en"})
	if h.session.Error() == "" {
		t.Fatal("banner should be set")
	}

	rec := httptest.NewRecorder()
	h.HandleDismissError(rec, httptest.NewRequest("POST", "/error/dismiss", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if h.session.Error() != "" {
		t.Error("banner should be cleared")
	}
}

// --- HandleStatus / HandleMessages ---

func TestHandleStatus(t *testing.T) {
	host := hosttest.New(nil)
	host.Detector = nil
	h := setupTest(t, host)

	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest("GET", "/status", nil))

	var out ops.AvailabilityOutput
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.State != gateway.StateUnavailable || len(out.Missing) != 1 || out.Missing[0] != gateway.DetectorName {
		t.Errorf("status = %+v", out)
	}
}

func TestHandleMessages(t *testing.T) {
	h := setupTest(t, nil)
	send(t, h, "one")
	send(t, h, "two")

	rec := httptest.NewRecorder()
	h.HandleMessages(rec, httptest.NewRequest("GET", "/messages", nil))

	var out ops.ListOutput
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Messages) != 2 || out.Messages[0].Text != "one" {
		t.Errorf("messages = %+v", out.Messages)
	}
}

// --- HandleJournal ---

func TestHandleJournal(t *testing.T) {
	h := setupTest(t, nil)
	send(t, h, "Bonjour le monde")

	rec := httptest.NewRecorder()
	h.HandleJournal(rec, httptest.NewRequest("GET", "/journal", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<td>detect</td>") {
		t.Error("expected detect row")
	}
	if strings.Contains(body, "Bonjour") {
		t.Error("journal must not contain message text")
	}

	req := httptest.NewRequest("GET", "/journal?operation=translate", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	h.HandleJournal(rec, req)

	var out ops.JournalListOutput
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Pagination.Total != 0 {
		t.Errorf("translate rows = %d, want 0", out.Pagination.Total)
	}
}

func TestHandleJournal_Disabled(t *testing.T) {
	h := setupTest(t, nil)
	h.db = nil

	rec := httptest.NewRecorder()
	h.HandleJournal(rec, httptest.NewRequest("GET", "/journal", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "disabled") {
		t.Error("expected disabled notice")
	}
}

// --- Server ---

func TestNewServer_RoutesAndHeaders(t *testing.T) {
	h := setupTest(t, nil)
	srv := NewServer(h.session, h.db, nil, "test", "127.0.0.1", 0)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/", http.StatusOK},
		{"GET", "/status", http.StatusOK},
		{"GET", "/messages", http.StatusOK},
		{"GET", "/journal", http.StatusOK},
		{"GET", "/static/app.css", http.StatusOK},
		{"GET", "/nope", http.StatusNotFound},
		{"DELETE", "/messages", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.status)
		}
		if rec.Header().Get("X-Frame-Options") != "DENY" {
			t.Errorf("%s %s missing security headers", tt.method, tt.path)
		}
	}
}

func TestConversation_FormsSwapContentBlock(t *testing.T) {
	h := setupTest(t, nil)
	id := send(t, h, longEnglish)
	srv := NewServer(h.session, h.db, nil, "test", "127.0.0.1", 0)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `<main id="content">`) {
		t.Error("layout should carry the #content swap target")
	}
	// summarize, translate and the composer
	if n := strings.Count(body, `data-swap="#content"`); n != 3 {
		t.Errorf("forms with data-swap = %d, want 3", n)
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/static/app.js", nil))
	if !strings.Contains(rec.Body.String(), `"HX-Request": "true"`) {
		t.Error("app.js should post swapped forms with the HX-Request header")
	}

	// What app.js sends for the translate form.
	req := postForm("/messages/"+id+"/translate", url.Values{"target": {"fr"}})
	req.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body = rec.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("swapped response should be the content block only")
	}
	if !strings.Contains(body, "[fr] The quarterly report") {
		t.Error("expected the refreshed conversation with the translation")
	}
}

func TestRenderMarkdown_DropsRawHTML(t *testing.T) {
	out := string(renderMarkdown("- ok\n\n<script>alert(1)</script>"))
	if strings.Contains(out, "<script>") {
		t.Errorf("raw HTML should not pass through: %s", out)
	}
	if !strings.Contains(out, "<li>ok</li>") {
		t.Errorf("expected list item: %s", out)
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(0); got != "1970-01-01 00:00" {
		t.Errorf("formatTime(0) = %q", got)
	}
}
