package web

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/hpungsan/parley/internal/errors"
	"github.com/hpungsan/parley/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	session  *ops.Session
	db       *sql.DB // nil when the journal is disabled
	renderer *Renderer
}

// HandleConversation handles GET /: the conversation, or the remediation
// page when host capabilities are missing.
func (h *Handlers) HandleConversation(w http.ResponseWriter, r *http.Request) {
	h.renderView(w, r)
}

// HandleSend handles POST /messages: submit a new text.
func (h *Handlers) HandleSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := h.session.Send(r.Context(), ops.SendInput{Text: r.FormValue("text")})
	// Empty input is a no-op for the browser.
	if errors.Is(err, errors.ErrInvalidRequest) && !wantsJSON(r) {
		h.respond(w, r, nil)
		return
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, result)
}

// HandleMessages handles GET /messages: the conversation as JSON.
func (h *Handlers) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.requireAvailable(); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, h.session.List())
}

// HandleSummarize handles POST /messages/{id}/summarize.
func (h *Handlers) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("message ID is required"))
		return
	}

	result, err := h.session.Summarize(r.Context(), ops.SummarizeInput{ID: id})
	h.afterAction(w, r, result, err)
}

// HandleTranslate handles POST /messages/{id}/translate: form field "target".
func (h *Handlers) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("message ID is required"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := h.session.Translate(r.Context(), ops.TranslateInput{ID: id, Target: r.FormValue("target")})
	h.afterAction(w, r, result, err)
}

// HandleDismissError handles POST /error/dismiss.
func (h *Handlers) HandleDismissError(w http.ResponseWriter, r *http.Request) {
	h.session.DismissError()
	h.respond(w, r, map[string]any{"dismissed": true})
}

// HandleStatus handles GET /status: availability as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.session.Availability())
}

// HandleJournal handles GET /journal: recorded host calls.
func (h *Handlers) HandleJournal(w http.ResponseWriter, r *http.Request) {
	data := JournalPageData{
		PageData:  h.renderer.page("Journal", "journal"),
		Enabled:   h.db != nil,
		Operation: r.URL.Query().Get("operation"),
	}
	if h.db == nil {
		if wantsJSON(r) {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("call journal is disabled"))
			return
		}
		h.renderer.renderPage(w, r, "journal", data)
		return
	}

	result, err := ops.JournalList(r.Context(), h.db, ops.JournalListInput{
		Operation: data.Operation,
		Limit:     parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:    parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	data.Items = result.Items
	data.Pagination = result.Pagination
	h.renderer.renderPage(w, r, "journal", data)
}

// afterAction finishes a summarize or translate request. Host failures are
// already on the banner, so browsers just see the refreshed conversation.
func (h *Handlers) afterAction(w http.ResponseWriter, r *http.Request, result any, err error) {
	if err != nil && (wantsJSON(r) || isRequestError(err)) {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, result)
}

// respond answers a successful POST: JSON gets the result, htmx gets the
// refreshed conversation, plain forms are redirected home.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, result any) {
	switch {
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, result)
	case isHTMX(r):
		h.renderView(w, r)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handlers) renderView(w http.ResponseWriter, r *http.Request) {
	view := h.session.View()
	if !view.Available() {
		h.renderer.renderPageStatus(w, r, http.StatusServiceUnavailable, "unavailable", UnavailablePageData{
			PageData: h.renderer.page("Unavailable", ""),
			Missing:  view.Missing,
		})
		return
	}
	h.renderer.renderPage(w, r, "conversation", ConversationPageData{
		PageData: h.renderer.page("Conversation", "conversation"),
		View:     view,
	})
}

func (h *Handlers) requireAvailable() error {
	a := h.session.Availability()
	if len(a.Missing) > 0 {
		return errors.NewCapabilityUnavailable(a.Missing...)
	}
	return nil
}

// isRequestError reports errors caused by the request rather than the host.
func isRequestError(err error) bool {
	switch errors.CodeOf(err) {
	case errors.ErrInvalidRequest, errors.ErrNotFound, errors.ErrConflict:
		return true
	}
	return false
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
