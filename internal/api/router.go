package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/user/delistd/internal/db"
	"github.com/user/delistd/internal/delist"
	"github.com/user/delistd/internal/portal"
)

// batchRunner is the engine surface the handlers need.
type batchRunner interface {
	Run(ctx context.Context, accountKey string, auth portal.Auth, productIDs []int64, maxWorkers int) (*delist.Report, error)
}

// portalBrowser covers the read-only portal queries exposed as
// passthrough endpoints.
type portalBrowser interface {
	CompliancePage(ctx context.Context, auth portal.Auth, page, pageSize int) (*portal.CompliancePageResult, error)
	ProductPage(ctx context.Context, auth portal.Auth, q portal.ProductPageQuery) (json.RawMessage, error)
}

type handler struct {
	credRepo   *db.CredentialRepo
	statusRepo *db.StatusRepo
	runner     batchRunner
	browser    portalBrowser
}

func NewRouter(conn *sql.DB, runner batchRunner, browser portalBrowser, token string) http.Handler {
	handler := &handler{
		credRepo:   db.NewCredentialRepo(conn),
		statusRepo: db.NewStatusRepo(conn),
		runner:     runner,
		browser:    browser,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/seller/offline", handler.offlineProducts)
	mux.HandleFunc("POST /api/seller/products", handler.queryProducts)

	mux.HandleFunc("GET /api/compliance/list", handler.listCompliance)
	mux.HandleFunc("GET /api/compliance/total", handler.complianceTotal)
	mux.HandleFunc("POST /api/compliance/status", handler.markStatus)

	mux.HandleFunc("GET /api/credentials/{key}", handler.getCredential)
	mux.HandleFunc("PUT /api/credentials/{key}", handler.putCredential)
	mux.HandleFunc("DELETE /api/credentials/{key}", handler.deleteCredential)

	wrapped := authMiddleware(token)(jsonMiddleware(corsMiddleware(mux)))
	return wrapped
}

func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				if strings.TrimSpace(authHeader[7:]) == token {
					next.ServeHTTP(w, r)
					return
				}
			}

			if r.URL.Query().Get("token") == token {
				next.ServeHTTP(w, r)
				return
			}

			jsonError(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// resolveAuth loads the account's stored portal credential and turns it
// into the auth context threaded through every portal call.
func (h *handler) resolveAuth(r *http.Request, accountKey string) (portal.Auth, bool) {
	if accountKey == "" {
		return portal.Auth{}, false
	}
	cred, err := h.credRepo.Get(r.Context(), accountKey)
	if err != nil || cred == nil {
		return portal.Auth{}, false
	}
	return portal.Auth{Cookie: cred.Cookie, MallID: cred.MallID}, true
}
