// Package web exposes the account-linking endpoint. A signed-in web user
// submits the verification code their chat received; the matching session is
// linked to the account and the chat is notified.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maximgrinin/todolist/internal/store"
)

// Linker attaches an account to the session holding a verification code.
type Linker interface {
	LinkByCode(ctx context.Context, code string, accountID int64) (chatID int64, err error)
}

// Notifier delivers the out-of-band confirmation to the linked chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Options struct {
	Bind      string
	Port      int
	AuthToken string
	Linker    Linker
	Notifier  Notifier
	Logger    *slog.Logger
}

type Server struct {
	bind      string
	port      int
	authToken string
	linker    Linker
	notifier  Notifier
	logger    *slog.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Linker == nil {
		return nil, fmt.Errorf("linker is required")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if strings.TrimSpace(opts.AuthToken) == "" {
		return nil, fmt.Errorf("auth token is required")
	}
	bind := strings.TrimSpace(opts.Bind)
	if bind == "" {
		bind = "127.0.0.1"
	}
	port := opts.Port
	if port <= 0 {
		port = 8787
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		bind:      bind,
		port:      port,
		authToken: opts.AuthToken,
		linker:    opts.Linker,
		notifier:  opts.Notifier,
		logger:    logger,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("/v1/verify", s.handleVerify)
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.bind, strconv.Itoa(s.port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("web_start", "addr", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type verifyRequest struct {
	VerificationCode string `json:"verification_code"`
	AccountID        int64  `json:"account_id"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	if !s.authorized(r) {
		s.logger.Warn("verify_unauthorized", "request_id", reqID, "remote", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	req.VerificationCode = strings.TrimSpace(req.VerificationCode)
	if req.VerificationCode == "" || req.AccountID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "verification_code and account_id are required"})
		return
	}

	chatID, err := s.linker.LinkByCode(r.Context(), req.VerificationCode, req.AccountID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "verification code is incorrect"})
		return
	}
	if err != nil {
		s.logger.Error("verify_link_error", "request_id", reqID, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}

	// Notification is best-effort: the link already happened.
	if err := s.notifier.SendMessage(r.Context(), chatID, "[verification has been completed]"); err != nil {
		s.logger.Warn("verify_notify_error", "request_id", reqID, "chat_id", chatID, "error", err.Error())
	}

	s.logger.Info("chat_linked", "request_id", reqID, "chat_id", chatID, "account_id", req.AccountID)
	writeJSON(w, http.StatusOK, map[string]any{"chat_id": chatID})
}

func (s *Server) authorized(r *http.Request) bool {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	got := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.authToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
