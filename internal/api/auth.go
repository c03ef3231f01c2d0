package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/roomcall/roomcall-core/internal/auth"
)

// Cookie names carrying the session token pair.
const (
	accessCookieName  = "access"
	refreshCookieName = "refresh"
)

// User-facing messages. The Korean strings are part of the public API
// contract and must not be reworded.
const (
	msgPasswordPolicy    = "비밀번호는 영어와 숫자를 포함해야 하며, 8글자 이상이어야 합니다."
	msgDuplicateUsername = "아이디가 중복되었습니다."
	msgBadCredentials    = "아이디나 비밀번호를 잘못입력하였습니다."
	msgLoginSuccess      = "login success"
	msgLogoutSuccess     = "Logout success"
)

// userView is the public representation of a user account. The password
// hash never leaves the server.
type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserView(u *auth.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// registerRequest is the request body for POST /register.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleRegister creates a new user account.
//
// The password must be at least 8 characters and contain both letters
// and digits; violations return 400 with the policy message. A taken
// username also returns 400, with the duplicate message.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if !auth.IsValidUsername(req.Username) {
		writeValidationError(w, "invalid username")
		return
	}

	if err := auth.ValidatePasswordPolicy(req.Password); err != nil {
		writeValidationError(w, msgPasswordPolicy)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	user := &auth.User{
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeValidationError(w, msgDuplicateUsername)
			return
		}
		s.logger.Error("creating user", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, newUserView(user))
}

// usernameCheckRequest is the request body for POST /username-check.
type usernameCheckRequest struct {
	Username string `json:"username"`
}

// usernameCheckResponse reports availability. A taken username is a
// normal result, not an error — the message carries the duplicate
// notice when available is false.
type usernameCheckResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

// handleUsernameCheck reports whether a username is free to register.
// Both outcomes return 200; clients must read the body.
func (s *Server) handleUsernameCheck(w http.ResponseWriter, r *http.Request) {
	var req usernameCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if !auth.IsValidUsername(req.Username) {
		writeValidationError(w, "invalid username")
		return
	}

	exists, err := s.users.UsernameExists(r.Context(), req.Username)
	if err != nil {
		s.logger.Error("checking username", "error", err)
		writeInternalError(w, "failed to check username")
		return
	}

	resp := usernameCheckResponse{Available: !exists}
	if exists {
		resp.Message = msgDuplicateUsername
	}
	writeJSON(w, http.StatusOK, resp)
}

// loginRequest is the request body for POST /auth.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth. The token pair is
// returned in the body in addition to being set as cookies.
type loginResponse struct {
	User    userView       `json:"user"`
	Message string         `json:"message"`
	Token   auth.TokenPair `json:"token"`
}

// handleLogin authenticates credentials and establishes a cookie session.
//
// Failures never reveal whether the username exists: a missing user and
// a wrong password both return the same 400 message.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeBadRequest(w, msgBadCredentials)
			return
		}
		s.logger.Error("loading user for login", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("verifying password", "error", err, "user_id", user.ID)
		writeInternalError(w, "login failed")
		return
	}
	if !ok {
		writeBadRequest(w, msgBadCredentials)
		return
	}

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		s.logger.Error("generating token pair", "error", err, "user_id", user.ID)
		writeInternalError(w, "login failed")
		return
	}

	s.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    newUserView(user),
		Message: msgLoginSuccess,
		Token:   pair,
	})
}

// handleCurrentUser resolves the session user from the auth cookies.
//
// An expired access token is transparently refreshed once from the
// refresh cookie, rotating both cookies on the response. Any other
// token failure returns 400 without a refresh attempt.
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.identify(w, r)
	if err != nil {
		writeBadRequest(w, "invalid or expired session")
		return
	}

	writeJSON(w, http.StatusOK, newUserView(user))
}

// handleLogout clears both session cookies.
//
// Logout is idempotent and always succeeds — tokens are stateless, so
// revocation is purely client-side cookie deletion.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.clearAuthCookies(w)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": msgLogoutSuccess,
	})
}

// identify resolves the current user from the request's auth cookies.
//
// The access cookie is verified first. If it is expired but validly
// signed, one refresh attempt is made from the refresh cookie and the
// rotated pair is set on the response. Invalid signatures and malformed
// tokens fail fast with no refresh attempt.
func (s *Server) identify(w http.ResponseWriter, r *http.Request) (*auth.User, error) {
	cookie, err := r.Cookie(accessCookieName)
	if err != nil {
		return nil, fmt.Errorf("%w: no access cookie", auth.ErrTokenInvalid)
	}

	claims, err := s.tokens.Parse(cookie.Value, auth.TokenAccess)
	switch {
	case err == nil:
		// Access token is good as-is.
	case errors.Is(err, auth.ErrTokenExpired):
		refreshCookie, cookieErr := r.Cookie(refreshCookieName)
		if cookieErr != nil {
			return nil, fmt.Errorf("%w: expired with no refresh cookie", auth.ErrTokenExpired)
		}

		pair, refreshClaims, refreshErr := s.tokens.Refresh(refreshCookie.Value)
		if refreshErr != nil {
			return nil, refreshErr
		}

		s.setAuthCookies(w, pair)
		claims = refreshClaims
	default:
		return nil, err
	}

	user, err := s.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			// Valid token for a deleted account.
			return nil, fmt.Errorf("%w: unknown subject", auth.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("resolving session user: %w", err)
	}

	return user, nil
}

// setAuthCookies sets the access and refresh cookies from a token pair.
// Cookies are HTTP-only; Secure tracks whether TLS is enabled.
func (s *Server) setAuthCookies(w http.ResponseWriter, pair auth.TokenPair) {
	http.SetCookie(w, s.sessionCookie(accessCookieName, pair.Access, s.tokens.AccessTTL()))
	http.SetCookie(w, s.sessionCookie(refreshCookieName, pair.Refresh, s.tokens.RefreshTTL()))
}

// clearAuthCookies instructs the client to delete both session cookies.
func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, s.sessionCookie(accessCookieName, "", -time.Second))
	http.SetCookie(w, s.sessionCookie(refreshCookieName, "", -time.Second))
}

// sessionCookie builds a session cookie. A negative TTL produces a
// deletion cookie (MaxAge -1).
func (s *Server) sessionCookie(name, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.TLS.Enabled,
		SameSite: http.SameSiteLaxMode,
	}
}
