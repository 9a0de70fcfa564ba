package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/linkvault/internal/common"
)

type registerRequest struct {
	Username string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type saltRequest struct {
	Username string `json:"username"`
}

type saltResponse struct {
	Salt []byte `json:"salt"`
}

type loginRequest struct {
	Username string `json:"username"`
	Verifier []byte `json:"verifier"`
}

type loginResponse struct {
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	VaultID string `json:"vault_id"`
}

type manifestResponse struct {
	Ciphertext []byte    `json:"ciphertext"`
	Nonce      []byte    `json:"nonce"`
	ETag       string    `json:"etag"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type putManifestRequest struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
}

type putManifestResponse struct {
	ETag    string `json:"etag"`
	Version int64  `json:"version"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || len(req.Salt) == 0 || len(req.Verifier) == 0 {
		http.Error(w, "username, salt and verifier are required", http.StatusBadRequest)
		return
	}

	_, err := s.userService.Register(r.Context(), req.Username, req.Salt, req.Verifier)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		s.logger.Error(r.Context(), "register failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSalt(w http.ResponseWriter, r *http.Request) {
	var req saltRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	salt, err := s.userService.GetSalt(r.Context(), req.Username)
	if err != nil {
		s.logger.Error(r.Context(), "salt lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, saltResponse{Salt: salt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	res, err := s.userService.Login(r.Context(), req.Username, req.Verifier)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, UserID: res.UserID, VaultID: res.VaultID})
}

func (s *Server) handleGetManifest(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	m, err := s.manifestService.Get(r.Context(), claims.VaultID)
	if err != nil {
		if errors.Is(err, common.ErrManifestNotFound) {
			http.Error(w, "no manifest", http.StatusNotFound)
			return
		}
		s.logger.Error(r.Context(), "manifest fetch failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", m.ETag)
	s.writeJSON(w, http.StatusOK, manifestResponse{
		Ciphertext: m.Ciphertext,
		Nonce:      m.Nonce,
		ETag:       m.ETag,
		Version:    m.Version,
		UpdatedAt:  m.UpdatedAt,
	})
}

func (s *Server) handlePutManifest(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req putManifestRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Ciphertext) == 0 || len(req.Nonce) == 0 {
		http.Error(w, "ciphertext and nonce are required", http.StatusBadRequest)
		return
	}

	expectedETag := r.Header.Get("If-Match")

	m, err := s.manifestService.Put(r.Context(), claims.VaultID, req.Ciphertext, req.Nonce, expectedETag)
	if err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			// a first save (no If-Match) racing an existing row is a
			// create conflict; a stale If-Match is a failed precondition
			status := http.StatusPreconditionFailed
			if expectedETag == "" {
				status = http.StatusConflict
			}
			http.Error(w, "version conflict", status)
			return
		}
		s.logger.Error(r.Context(), "manifest save failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", m.ETag)
	s.writeJSON(w, http.StatusOK, putManifestResponse{ETag: m.ETag, Version: m.Version})
}
