package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/service"
	"github.com/aussiebroadwan/staffroom/pkg/httpx"
	"github.com/aussiebroadwan/staffroom/pkg/slogx"
)

// LoginResult is the response body shared by every account endpoint
// that hands out or describes a session.
type LoginResult struct {
	Email         string `json:"email"`
	Role          string `json:"role"`
	OriginalEmail string `json:"originalEmail,omitempty"`
	AccessToken   string `json:"accessToken,omitempty"`
	RefreshToken  string `json:"refreshToken,omitempty"`
	Successful    bool   `json:"successful"`
	Error         string `json:"error,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type impersonationRequest struct {
	Email string `json:"email"`
}

// AccountHandler serves the /api/account endpoints: login, refresh,
// logout, current-user and impersonation.
type AccountHandler struct {
	SessionService *service.SessionService
	UserService    *service.UserService
}

func sessionResult(s domain.Session) LoginResult {
	return LoginResult{
		Email:         s.Email,
		Role:          s.Role,
		OriginalEmail: s.OriginalEmail,
		AccessToken:   s.AccessToken,
		RefreshToken:  s.RefreshToken,
		Successful:    true,
	}
}

func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ok, err := h.UserService.ValidateCredentials(ctx, req.Email, req.Password)
	if err != nil {
		log.Error("credential check failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		log.Info("rejected login", "email", req.Email)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	role, err := h.UserService.GetRole(ctx, req.Email)
	if err != nil {
		log.Error("role lookup failed", "email", req.Email, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	session, err := h.SessionService.Issue(req.Email, role, "", time.Now())
	if err != nil {
		log.Error("token issue failed", "email", req.Email, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("user logged in", "email", req.Email, "role", role)
	httpx.WriteJSON(w, http.StatusOK, sessionResult(session))
}

// HandleRefresh rotates the caller's refresh token. The bearer access
// token may be expired but must be untampered; the refresh-token route
// is mounted behind the allow-expired authn variant. Every failure is
// a plain 401 "Invalid token" so the client falls back to login.
func (h *AccountHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	email := httpx.EmailFromContext(ctx)

	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	access, _ := httpx.BearerToken(r)
	session, err := h.SessionService.Refresh(ctx, req.RefreshToken, access, time.Now())
	if err != nil {
		log.Info("refresh rejected", "email", email, "err", err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	log.Info("refreshed session", "email", session.Email)
	httpx.WriteJSON(w, http.StatusOK, sessionResult(session))
}

// HandleLogout drops the caller's refresh token. Idempotent: logging
// out twice is still a 200.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := httpx.EmailFromContext(ctx)

	h.SessionService.Revoke(email)
	slogx.FromContext(ctx).Info("user logged out", "email", email)
	w.WriteHeader(http.StatusOK)
}

// HandleUser echoes the verified claims of the current access token.
// No tokens are minted here.
func (h *AccountHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResult{
		Email:         claims.Email(),
		Role:          claims.Role,
		OriginalEmail: claims.OriginalEmail,
		Successful:    true,
	})
}

func (h *AccountHandler) HandleImpersonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	adminEmail := httpx.EmailFromContext(ctx)

	var req impersonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	session, err := h.SessionService.Impersonate(ctx, adminEmail, req.Email, time.Now())
	switch {
	case errors.Is(err, service.ErrTargetNotFound):
		log.Info("impersonation target not found", "admin", adminEmail, "target", req.Email)
		http.Error(w, fmt.Sprintf("The target user [%s] is not found.", req.Email), http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrForbiddenImpersonation):
		log.Info("impersonation of an admin refused", "admin", adminEmail, "target", req.Email)
		http.Error(w, "This action is not supported.", http.StatusBadRequest)
		return
	case err != nil:
		log.Error("impersonation failed", "admin", adminEmail, "target", req.Email, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("impersonation started", "admin", adminEmail, "target", req.Email)
	httpx.WriteJSON(w, http.StatusOK, sessionResult(session))
}

func (h *AccountHandler) HandleStopImpersonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	session, err := h.SessionService.StopImpersonation(ctx, claims, time.Now())
	switch {
	case errors.Is(err, service.ErrNotImpersonating):
		http.Error(w, "You are not impersonating anyone.", http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrTargetNotFound):
		// The admin account vanished mid-impersonation; there is no
		// session to restore.
		log.Warn("impersonating admin no longer exists", "admin", claims.OriginalEmail, "acting_as", claims.Email())
		http.Error(w, fmt.Sprintf("The target user [%s] is not found.", claims.OriginalEmail), http.StatusBadRequest)
		return
	case err != nil:
		log.Error("stop impersonation failed", "email", claims.Email(), "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("impersonation stopped", "admin", session.Email, "was", claims.Email())
	httpx.WriteJSON(w, http.StatusOK, sessionResult(session))
}
