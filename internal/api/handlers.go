package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tempvault/tempvault/internal/broadcast"
	"github.com/tempvault/tempvault/internal/fault"
	"github.com/tempvault/tempvault/internal/filter"
	"github.com/tempvault/tempvault/internal/model"
	"github.com/tempvault/tempvault/internal/scheduler"
)

// envelope is the uniform response wrapper. Result is set on success, Error
// on failure, never both.
type envelope struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// importLimit bounds the accepted backup document size.
const importLimit = 32 << 20

func writeResult(w http.ResponseWriter, status int, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Result: result})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// writeFailure maps the failure taxonomy onto HTTP statuses: validation is
// the caller's fault, storage is ours, network and timeout blame the
// upstream provider.
func (s *Server) writeFailure(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case fault.IsValidation(err):
		status = http.StatusBadRequest
	case fault.IsNetwork(err), fault.IsTimeout(err):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op, "error", err)
	}
	writeError(w, status, err.Error())
}

// listPage is the paged message response.
type listPage struct {
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
	Messages []model.Message `json:"messages"`
}

// parseListQuery reads paging and filter parameters. Unknown status values
// fall through to the filter, which treats them as non-excluding.
func parseListQuery(r *http.Request) (limit, offset int, f filter.State, section model.Section) {
	q := r.URL.Query()

	limit, _ = strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset, _ = strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	section = model.Section(q.Get("section"))
	f = filter.State{
		Status:   filter.Status(q.Get("status")),
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
		Sender:   q.Get("sender"),
		Keyword:  q.Get("keyword"),
	}
	f.Active = !f.IsEmpty()
	return limit, offset, f, section
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit, offset, f, section := parseListQuery(r)

	total, err := s.store.Count(f, section)
	if err != nil {
		s.writeFailure(w, "count messages", err)
		return
	}
	msgs, err := s.store.Page(limit, offset, f, section)
	if err != nil {
		s.writeFailure(w, "page messages", err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}

	writeResult(w, http.StatusOK, listPage{
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		Messages: msgs,
	})
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.store.Get(id)
	if err != nil {
		s.writeFailure(w, "get message", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	writeResult(w, http.StatusOK, m)
}

func (s *Server) handleOpenMessage(w http.ResponseWriter, r *http.Request) {
	m, err := s.view.OpenMessage(chi.URLParam(r, "id"))
	if err != nil {
		if fault.IsValidation(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeFailure(w, "open message", err)
		return
	}
	writeResult(w, http.StatusOK, m)
}

func (s *Server) handleToggleStar(w http.ResponseWriter, r *http.Request) {
	starred, err := s.view.ToggleStar(chi.URLParam(r, "id"))
	if err != nil {
		if fault.IsValidation(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeFailure(w, "toggle star", err)
		return
	}
	writeResult(w, http.StatusOK, map[string]bool{"starred": starred})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.view.MarkAllRead()
	if err != nil {
		s.writeFailure(w, "mark all read", err)
		return
	}
	writeResult(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) handleClearRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.view.ClearRead()
	if err != nil {
		s.writeFailure(w, "clear read", err)
		return
	}
	writeResult(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	msgs, err := s.view.Search(query)
	if err != nil {
		s.writeFailure(w, "search", err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	writeResult(w, http.StatusOK, map[string]interface{}{
		"query":    query,
		"total":    len(msgs),
		"messages": msgs,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.view.Stats()
	if err != nil {
		s.writeFailure(w, "stats", err)
		return
	}
	writeResult(w, http.StatusOK, stats)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if n < 1 || n > 50 {
		n = 3
	}
	events, err := s.view.RecentActivity(n)
	if err != nil {
		s.writeFailure(w, "recent activity", err)
		return
	}
	writeResult(w, http.StatusOK, events)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.Accounts()
	if err != nil {
		s.writeFailure(w, "list accounts", err)
		return
	}
	writeResult(w, http.StatusOK, map[string]interface{}{
		"current":  s.view.Email(),
		"accounts": accounts,
	})
}

func (s *Server) handleSwitchAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.view.SwitchAccount(req.Email); err != nil {
		s.writeFailure(w, "switch account", err)
		return
	}
	writeResult(w, http.StatusOK, map[string]string{"current": req.Email})
}

func (s *Server) handleDarkMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.view.SetDarkMode(req.Enabled); err != nil {
		s.writeFailure(w, "set dark mode", err)
		return
	}
	writeResult(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		email = s.view.Email()
	}
	if email == "" {
		writeError(w, http.StatusBadRequest, "no account to sync")
		return
	}

	inserted, err := s.syncer.Sync(r.Context(), email)
	if err != nil {
		s.writeFailure(w, "sync", err)
		return
	}
	if inserted > 0 {
		if err := s.view.Refresh(); err != nil {
			s.writeFailure(w, "refresh after sync", err)
			return
		}
		s.bus.Publish(broadcast.MessagesUpdated, "")
	}
	writeResult(w, http.StatusOK, map[string]interface{}{
		"email":    email,
		"inserted": inserted,
	})
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		writeResult(w, http.StatusOK, map[string]interface{}{
			"running":  false,
			"accounts": []scheduler.AccountStatus{},
		})
		return
	}
	statuses := s.sched.Status()
	if statuses == nil {
		statuses = []scheduler.AccountStatus{}
	}
	writeResult(w, http.StatusOK, map[string]interface{}{
		"running":  true,
		"accounts": statuses,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Export()
	if err != nil {
		s.writeFailure(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="tempvault-backup.json"`)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(doc)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, importLimit+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
		return
	}
	if len(data) > importLimit {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("backup exceeds %d bytes", importLimit))
		return
	}

	n, err := s.store.Import(data)
	if err != nil {
		s.writeFailure(w, "import", err)
		return
	}
	if err := s.view.Refresh(); err != nil {
		s.writeFailure(w, "refresh after import", err)
		return
	}
	s.bus.Publish(broadcast.MessagesUpdated, "")
	writeResult(w, http.StatusOK, map[string]int{"imported": n})
}

// handleEvents streams broadcast events as server-sent events, so a remote
// view converges the same way an in-process one does.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub := s.bus.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, open := <-sub.Events():
			if !open {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				s.logger.Error("encode event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload); err != nil {
				if !errors.Is(err, r.Context().Err()) {
					s.logger.Debug("event stream closed", "error", err)
				}
				return
			}
			flusher.Flush()
		}
	}
}
