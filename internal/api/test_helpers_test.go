package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roomcall/roomcall-core/internal/auth"
	"github.com/roomcall/roomcall-core/internal/infrastructure/config"
	"github.com/roomcall/roomcall-core/internal/infrastructure/logging"
	"github.com/roomcall/roomcall-core/internal/room"
)

const testSecret = "test-signing-secret-at-least-32-chars-long"

// testServer bundles a configured server, its router, and the backing
// database for direct seeding.
type testServer struct {
	srv    *Server
	router http.Handler
	db     *sql.DB
	users  auth.UserRepository
	rooms  room.Repository
}

// newTestServer builds a server over a temporary SQLite database.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE rooms (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	users := auth.NewUserRepository(db)
	rooms := room.NewRepository(db)
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	tokens := auth.NewTokenIssuer(testSecret, 15, 1440)

	srv, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  logger,
		Users:   users,
		Rooms:   rooms,
		Tokens:  tokens,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &testServer{
		srv:    srv,
		router: srv.buildRouter(),
		db:     db,
		users:  users,
		rooms:  rooms,
	}
}

// registerUser creates an account directly through the repository and
// returns the stored user. The password is always "abcd1234".
func (ts *testServer) registerUser(t *testing.T, username string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword("abcd1234")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := &auth.User{Username: username, PasswordHash: hash}
	if err := ts.users.Create(context.Background(), user); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

// login performs a real login request and returns the session cookies.
func (ts *testServer) login(t *testing.T, username, password string) []*http.Cookie {
	t.Helper()

	resp := ts.request(t, http.MethodPost, "/api/v1/auth",
		map[string]string{"username": username, "password": password}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("login as %s: status = %d, body = %s", username, resp.Code, resp.Body.String())
	}
	return resp.Result().Cookies()
}

// request performs an HTTP request against the router. A non-nil body
// is JSON-encoded; cookies are attached when given.
func (ts *testServer) request(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a recorded JSON response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
}

// cookieByName returns the named cookie from a set, or nil.
func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// signedToken mints a token with arbitrary validity against the test
// secret, for expiry and tamper scenarios the issuer won't produce.
func signedToken(t *testing.T, subject string, typ auth.TokenType, expiresAt time.Time) string {
	t.Helper()

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		TokenType: typ,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}
