package api

import (
	"net/http"
	"time"

	"github.com/user/delistd/internal/db"
)

type putCredentialRequest struct {
	Cookie string `json:"cookie"`
	MallID string `json:"mall_id"`
}

// credentialView is what GET returns: the cookie itself never leaves the
// server once stored.
type credentialView struct {
	AccountKey string    `json:"account_key"`
	MallID     string    `json:"mall_id"`
	HasCookie  bool      `json:"has_cookie"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (h *handler) getCredential(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	cred, err := h.credRepo.Get(r.Context(), key)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cred == nil {
		jsonError(w, http.StatusNotFound, "credential not found")
		return
	}
	jsonResponse(w, http.StatusOK, credentialView{
		AccountKey: cred.AccountKey,
		MallID:     cred.MallID,
		HasCookie:  cred.Cookie != "",
		UpdatedAt:  cred.UpdatedAt,
	})
}

func (h *handler) putCredential(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req putCredentialRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Cookie == "" || req.MallID == "" {
		jsonError(w, http.StatusBadRequest, "cookie and mall_id are required")
		return
	}

	cred := &db.Credential{AccountKey: key, Cookie: req.Cookie, MallID: req.MallID}
	if err := h.credRepo.Put(r.Context(), cred); err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, credentialView{
		AccountKey: cred.AccountKey,
		MallID:     cred.MallID,
		HasCookie:  true,
		UpdatedAt:  cred.UpdatedAt,
	})
}

func (h *handler) deleteCredential(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := h.credRepo.Delete(r.Context(), key); err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}
