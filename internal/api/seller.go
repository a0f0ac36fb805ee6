package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/delistd/internal/delist"
	"github.com/user/delistd/internal/portal"
)

type offlineRequest struct {
	AccountKey string  `json:"account_key"`
	ProductIDs []int64 `json:"product_ids"`
	MaxWorkers int     `json:"max_workers"`
}

type productQueryRequest struct {
	AccountKey  string  `json:"account_key"`
	ProductIDs  []int64 `json:"product_ids,omitempty"`
	ProductName string  `json:"product_name,omitempty"`
	Page        int     `json:"page"`
	PageSize    int     `json:"page_size"`
}

func (h *handler) offlineProducts(w http.ResponseWriter, r *http.Request) {
	var req offlineRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AccountKey == "" {
		jsonError(w, http.StatusBadRequest, "account_key is required")
		return
	}
	if len(req.ProductIDs) == 0 {
		jsonError(w, http.StatusBadRequest, "product_ids must not be empty")
		return
	}

	auth, ok := h.resolveAuth(r, req.AccountKey)
	if !ok {
		jsonError(w, http.StatusNotFound, "no credentials stored for account")
		return
	}

	report, err := h.runner.Run(r.Context(), req.AccountKey, auth, req.ProductIDs, req.MaxWorkers)
	if err != nil {
		var discoveryErr *delist.DiscoveryError
		switch {
		case errors.Is(err, delist.ErrInvalidConcurrency):
			jsonError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &discoveryErr):
			jsonError(w, http.StatusBadGateway, err.Error())
		default:
			slog.Error("delist batch failed", "account", req.AccountKey, "error", err)
			jsonError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	jsonResponse(w, http.StatusOK, report)
}

func (h *handler) queryProducts(w http.ResponseWriter, r *http.Request) {
	var req productQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	auth, ok := h.resolveAuth(r, req.AccountKey)
	if !ok {
		jsonError(w, http.StatusNotFound, "no credentials stored for account")
		return
	}

	items, err := h.browser.ProductPage(r.Context(), auth, portal.ProductPageQuery{
		ProductIDs:  req.ProductIDs,
		ProductName: req.ProductName,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"items": items})
}
