// Package server exposes conversation sessions over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Conversations is what the handlers need from a session.
type Conversations interface {
	HandleTurn(ctx context.Context, ownerID, sessionKey, role, userText string) (string, error)
	Transcript(ctx context.Context, ownerID, sessionKey string) (models.Transcript, error)
	Clear(ctx context.Context, ownerID, sessionKey string) error
}

type Handler struct {
	conversations Conversations
	roles         func() []string
	debug         bool
}

func New(conversations Conversations, roles func() []string) *Handler {
	return &Handler{
		conversations: conversations,
		roles:         roles,
		debug:         misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_SERVER")),
	}
}

// Router returns the routes with the common middleware applied.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if h.debug {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/roles", h.ListRoles)
		r.Route("/owners/{owner}/sessions/{session}", func(r chi.Router) {
			r.Get("/", h.GetTranscript)
			r.Delete("/", h.ClearSession)
			r.Post("/turns", h.PostTurn)
		})
	})
}

type turnRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type turnResponse struct {
	Reply string `json:"reply"`
}

type transcriptTurn struct {
	Index     int        `json:"index"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type errorResponse struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (h *Handler) PostTurn(w http.ResponseWriter, r *http.Request) {
	owner, session := chi.URLParam(r, "owner"), chi.URLParam(r, "session")
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSON(w, http.StatusBadRequest, errorResponse{Title: "bad request", Message: fmt.Sprintf("failed to decode body: %v", err)})
		return
	}
	if req.Text == "" {
		JSON(w, http.StatusBadRequest, errorResponse{Title: "bad request", Message: "text must not be empty"})
		return
	}
	reply, err := h.conversations.HandleTurn(r.Context(), owner, session, req.Role, req.Text)
	if err != nil {
		h.Error(w, err)
		return
	}
	JSON(w, http.StatusOK, turnResponse{Reply: reply})
}

func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	tr, err := h.conversations.Transcript(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "session"))
	if err != nil {
		h.Error(w, err)
		return
	}
	ret := make([]transcriptTurn, 0, len(tr))
	for _, t := range tr {
		tt := transcriptTurn{Index: t.Index, Role: t.Role.String(), Content: t.Content}
		if !t.CreatedAt.IsZero() {
			ts := t.CreatedAt
			tt.Timestamp = &ts
		}
		ret = append(ret, tt)
	}
	JSON(w, http.StatusOK, ret)
}

func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if err := h.conversations.Clear(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "session")); err != nil {
		h.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string][]string{"roles": h.roles()})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ancli.Errf("failed to encode response: %v\n", err)
	}
}

// Error writes err with the status of its kind.
func (h *Handler) Error(w http.ResponseWriter, err error) {
	status, title := statusOf(err)
	if status >= http.StatusInternalServerError || h.debug {
		ancli.PrintErr(fmt.Sprintf("%v: %v\n", title, err))
	}
	JSON(w, status, errorResponse{Title: title, Message: err.Error()})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrConfiguration):
		return http.StatusBadRequest, "configuration error"
	case errors.Is(err, models.ErrParse):
		return http.StatusUnprocessableEntity, "parse error"
	case errors.Is(err, models.ErrProvider):
		return http.StatusBadGateway, "provider error"
	case errors.Is(err, models.ErrStorage):
		return http.StatusInternalServerError, "storage error"
	}
	return http.StatusInternalServerError, "internal error"
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		ancli.PrintOK(fmt.Sprintf("listening on: '%v'\n", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	ancli.PrintOK("server stopped\n")
	return nil
}
