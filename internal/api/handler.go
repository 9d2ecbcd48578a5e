package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/querygenie/querygenie/internal/account"
	"github.com/querygenie/querygenie/internal/config"
	"github.com/querygenie/querygenie/internal/connection"
	"github.com/querygenie/querygenie/internal/nl2sql"
	"github.com/querygenie/querygenie/internal/observability"
	"github.com/querygenie/querygenie/internal/pipeline"
	"github.com/querygenie/querygenie/internal/store"
)

type ReadinessCheck func(ctx context.Context) error

// AccountService is the slice of the account layer the handlers call.
type AccountService interface {
	RequestOTP(email string) (bool, error)
	Signup(ctx context.Context, in account.SignupInput) (store.User, error)
	Login(ctx context.Context, identifier string, password string) (store.User, error)
}

// SessionStore persists chat sessions with ownership enforcement.
type SessionStore interface {
	ListByUser(ctx context.Context, userID int64) ([]store.ChatSession, error)
	Create(ctx context.Context, userID int64, title string, messages string) (store.ChatSession, error)
	Update(ctx context.Context, id int64, userID int64, title string, messages string) (store.ChatSession, error)
	Delete(ctx context.Context, id int64, userID int64) error
}

// QueryPipeline runs questions and confirmed statements against a target.
type QueryPipeline interface {
	Translate(ctx context.Context, target pipeline.Target, schema string, question string, history []nl2sql.Message) pipeline.Reply
	ConfirmExecute(ctx context.Context, target pipeline.Target, statement string, confirm bool) pipeline.Outcome
}

type Dependencies struct {
	Logger           *slog.Logger
	Readiness        ReadinessCheck
	DependencyTimout time.Duration
	Accounts         AccountService
	Sessions         SessionStore
	Connections      *connection.Manager
	Pipeline         QueryPipeline
	Target           config.TargetConfig
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/send-otp", func(w http.ResponseWriter, r *http.Request) {
		handleSendOTP(deps, w, r)
	})
	mux.HandleFunc("POST /api/signup", func(w http.ResponseWriter, r *http.Request) {
		handleSignup(deps, w, r)
	})
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		handleLogin(deps, w, r)
	})

	mux.HandleFunc("POST /api/connect", func(w http.ResponseWriter, r *http.Request) {
		handleConnect(deps, w, r)
	})
	mux.HandleFunc("POST /api/disconnect", func(w http.ResponseWriter, r *http.Request) {
		handleDisconnect(deps, w, r)
	})

	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		handleChat(deps, w, r)
	})
	mux.HandleFunc("POST /api/confirm-sql", func(w http.ResponseWriter, r *http.Request) {
		handleConfirmSQL(deps, w, r)
	})

	mux.HandleFunc("GET /api/chat-sessions", func(w http.ResponseWriter, r *http.Request) {
		handleListSessions(deps, w, r)
	})
	mux.HandleFunc("POST /api/chat-sessions", func(w http.ResponseWriter, r *http.Request) {
		handleCreateSession(deps, w, r)
	})
	mux.HandleFunc("PUT /api/chat-sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleUpdateSession(deps, w, r)
	})
	mux.HandleFunc("DELETE /api/chat-sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleDeleteSession(deps, w, r)
	})

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
		CORSMiddleware(cfg.CORS.AllowedOrigins),
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

// CheckStorePath reports readiness of the application store configuration.
func CheckStorePath(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.Store.Path == "" {
			return errors.New("store path is not configured")
		}
		return nil
	}
}

func CheckTranslatorConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.AI.APIKey == "" {
			return errors.New("completion api key is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
