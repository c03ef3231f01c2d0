package api

import (
	"net/http"
	"testing"
	"time"
)

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/v1/register",
		map[string]string{"username": "alice", "password": "abcd1234"}, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body = %s", resp.Code, resp.Body.String())
	}

	var view userView
	decodeBody(t, resp, &view)
	if view.Username != "alice" {
		t.Errorf("username = %q, want alice", view.Username)
	}
	if view.ID == "" {
		t.Error("response should include the generated user ID")
	}
}

func TestRegister_PasswordPolicy(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		password string
		wantCode int
	}{
		{name: "letters and digits", password: "abcd1234", wantCode: http.StatusCreated},
		{name: "no digits", password: "abcdefgh", wantCode: http.StatusBadRequest},
		{name: "no letters", password: "12345678", wantCode: http.StatusBadRequest},
		{name: "too short", password: "ab12", wantCode: http.StatusBadRequest},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.request(t, http.MethodPost, "/api/v1/register",
				map[string]string{"username": "user" + string(rune('a'+i)), "password": tt.password}, nil)
			if resp.Code != tt.wantCode {
				t.Errorf("status = %d, want %d; body = %s", resp.Code, tt.wantCode, resp.Body.String())
			}

			if tt.wantCode == http.StatusBadRequest {
				var apiErr Error
				decodeBody(t, resp, &apiErr)
				if apiErr.Message != msgPasswordPolicy {
					t.Errorf("message = %q, want policy message", apiErr.Message)
				}
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "alice")

	resp := ts.request(t, http.MethodPost, "/api/v1/register",
		map[string]string{"username": "alice", "password": "abcd1234"}, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", resp.Code, resp.Body.String())
	}

	var apiErr Error
	decodeBody(t, resp, &apiErr)
	if apiErr.Message != msgDuplicateUsername {
		t.Errorf("message = %q, want duplicate message", apiErr.Message)
	}
}

func TestUsernameCheck(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "alice")

	// Taken and fresh usernames both answer 200; the body carries the
	// distinction.
	resp := ts.request(t, http.MethodPost, "/api/v1/username-check",
		map[string]string{"username": "alice"}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var taken usernameCheckResponse
	decodeBody(t, resp, &taken)
	if taken.Available {
		t.Error("taken username reported as available")
	}
	if taken.Message != msgDuplicateUsername {
		t.Errorf("message = %q, want duplicate message", taken.Message)
	}

	resp = ts.request(t, http.MethodPost, "/api/v1/username-check",
		map[string]string{"username": "bob"}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var fresh usernameCheckResponse
	decodeBody(t, resp, &fresh)
	if !fresh.Available {
		t.Error("fresh username reported as taken")
	}
	if fresh.Message != "" {
		t.Errorf("fresh username message = %q, want empty", fresh.Message)
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "alice")

	resp := ts.request(t, http.MethodPost, "/api/v1/auth",
		map[string]string{"username": "alice", "password": "abcd1234"}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", resp.Code, resp.Body.String())
	}

	var body loginResponse
	decodeBody(t, resp, &body)
	if body.User.Username != "alice" {
		t.Errorf("user.username = %q, want alice", body.User.Username)
	}
	if body.Message != msgLoginSuccess {
		t.Errorf("message = %q, want %q", body.Message, msgLoginSuccess)
	}
	if body.Token.Access == "" || body.Token.Refresh == "" {
		t.Error("response body should carry the token pair")
	}

	cookies := resp.Result().Cookies()
	for _, name := range []string{"access", "refresh"} {
		c := cookieByName(cookies, name)
		if c == nil {
			t.Fatalf("missing %s cookie", name)
		}
		if c.Value == "" {
			t.Errorf("%s cookie is empty", name)
		}
		if !c.HttpOnly {
			t.Errorf("%s cookie should be HTTP-only", name)
		}
	}
}

func TestLogin_WrongCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "alice")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "alice", password: "wrong-pass1"},
		{name: "unknown user", username: "mallory", password: "abcd1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.request(t, http.MethodPost, "/api/v1/auth",
				map[string]string{"username": tt.username, "password": tt.password}, nil)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.Code)
			}

			// Same message either way — no username oracle.
			var apiErr Error
			decodeBody(t, resp, &apiErr)
			if apiErr.Message != msgBadCredentials {
				t.Errorf("message = %q, want bad-credentials message", apiErr.Message)
			}

			if len(resp.Result().Cookies()) != 0 {
				t.Error("failed login should not set cookies")
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "alice")
	cookies := ts.login(t, "alice", "abcd1234")

	resp := ts.request(t, http.MethodGet, "/api/v1/auth", nil, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", resp.Code, resp.Body.String())
	}

	var view userView
	decodeBody(t, resp, &view)
	if view.Username != "alice" {
		t.Errorf("username = %q, want alice", view.Username)
	}
}

func TestCurrentUser_NoCookies(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/v1/auth", nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Code)
	}
}

func TestCurrentUser_TransparentRefresh(t *testing.T) {
	ts := newTestServer(t)
	user := ts.registerUser(t, "alice")

	// Expired access token alongside a valid refresh token.
	cookies := []*http.Cookie{
		{Name: "access", Value: signedToken(t, user.ID, "access", time.Now().Add(-time.Hour))},
		{Name: "refresh", Value: signedToken(t, user.ID, "refresh", time.Now().Add(time.Hour))},
	}

	resp := ts.request(t, http.MethodGet, "/api/v1/auth", nil, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", resp.Code, resp.Body.String())
	}

	var view userView
	decodeBody(t, resp, &view)
	if view.ID != user.ID {
		t.Errorf("refreshed session user = %q, want %q", view.ID, user.ID)
	}

	// Both cookies must be rotated on the response.
	rotated := resp.Result().Cookies()
	for _, name := range []string{"access", "refresh"} {
		c := cookieByName(rotated, name)
		if c == nil || c.Value == "" {
			t.Fatalf("refresh should rotate the %s cookie", name)
		}
	}
}

func TestCurrentUser_BothExpired(t *testing.T) {
	ts := newTestServer(t)
	user := ts.registerUser(t, "alice")

	cookies := []*http.Cookie{
		{Name: "access", Value: signedToken(t, user.ID, "access", time.Now().Add(-time.Hour))},
		{Name: "refresh", Value: signedToken(t, user.ID, "refresh", time.Now().Add(-time.Hour))},
	}

	resp := ts.request(t, http.MethodGet, "/api/v1/auth", nil, cookies)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Code)
	}
}

func TestCurrentUser_InvalidSignatureNoRefresh(t *testing.T) {
	ts := newTestServer(t)
	user := ts.registerUser(t, "alice")

	// A garbage access token must fail fast even with a perfectly good
	// refresh cookie available.
	cookies := []*http.Cookie{
		{Name: "access", Value: "not-a-valid-token"},
		{Name: "refresh", Value: signedToken(t, user.ID, "refresh", time.Now().Add(time.Hour))},
	}

	resp := ts.request(t, http.MethodGet, "/api/v1/auth", nil, cookies)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Error("invalid token must not trigger a cookie rotation")
	}
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "alice")
	cookies := ts.login(t, "alice", "abcd1234")

	resp := ts.request(t, http.MethodDelete, "/api/v1/auth", nil, cookies)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.Code)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["message"] != msgLogoutSuccess {
		t.Errorf("message = %q, want %q", body["message"], msgLogoutSuccess)
	}

	// Both cookies cleared.
	cleared := resp.Result().Cookies()
	for _, name := range []string{"access", "refresh"} {
		c := cookieByName(cleared, name)
		if c == nil {
			t.Fatalf("logout should emit a deletion cookie for %s", name)
		}
		if c.Value != "" || c.MaxAge != -1 {
			t.Errorf("%s cookie not cleared: value=%q maxAge=%d", name, c.Value, c.MaxAge)
		}
	}
}

func TestLogout_Idempotent(t *testing.T) {
	ts := newTestServer(t)

	// No session at all — logout still succeeds.
	resp := ts.request(t, http.MethodDelete, "/api/v1/auth", nil, nil)
	if resp.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", resp.Code)
	}
}
