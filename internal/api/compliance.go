package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type markStatusRequest struct {
	AccountKey string `json:"account_key"`
	ProductID  int64  `json:"product_id"`
	Status     int    `json:"status"`
}

func (h *handler) listCompliance(w http.ResponseWriter, r *http.Request) {
	accountKey := r.URL.Query().Get("account_key")
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	auth, ok := h.resolveAuth(r, accountKey)
	if !ok {
		jsonError(w, http.StatusNotFound, "no credentials stored for account")
		return
	}

	result, err := h.browser.CompliancePage(r.Context(), auth, page, pageSize)
	if err != nil {
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}

	// Fold the locally tracked handling state into each entry so the UI
	// can show which violations an operator already dealt with.
	ids := make([]int64, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if id, ok := entrySpuID(entry); ok {
			ids = append(ids, id)
		}
	}
	statuses, err := h.statusRepo.GetMany(r.Context(), accountKey, ids)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, entry := range result.Entries {
		if id, ok := entrySpuID(entry); ok {
			entry["processed_status"] = statuses[id]
		}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"items": result.Entries,
		"total": result.Total,
	})
}

func (h *handler) complianceTotal(w http.ResponseWriter, r *http.Request) {
	accountKey := r.URL.Query().Get("account_key")
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	auth, ok := h.resolveAuth(r, accountKey)
	if !ok {
		jsonError(w, http.StatusNotFound, "no credentials stored for account")
		return
	}

	result, err := h.browser.CompliancePage(r.Context(), auth, page, pageSize)
	if err != nil {
		jsonError(w, http.StatusBadGateway, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"total": result.Total})
}

func (h *handler) markStatus(w http.ResponseWriter, r *http.Request) {
	var req markStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AccountKey == "" || req.ProductID == 0 {
		jsonError(w, http.StatusBadRequest, "account_key and product_id are required")
		return
	}

	if err := h.statusRepo.Set(r.Context(), req.AccountKey, req.ProductID, req.Status); err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// entrySpuID digs the product id out of a raw compliance entry. The
// portal reports it as spu_id, sometimes as a number and sometimes as a
// string.
func entrySpuID(entry map[string]any) (int64, bool) {
	raw, ok := entry["spu_id"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
