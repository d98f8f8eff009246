package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"forest_monitor/internal/repository"
	"forest_monitor/internal/service"
)

func postJSON(t *testing.T, s *service.Service, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(s).ServeHTTP(w, req)
	return w
}

func TestAuthHandlers(t *testing.T) {
	cases := []struct {
		name     string
		auth     *mockAuth
		path     string
		body     string
		wantCode int
		wantKey  string
		wantVal  any
	}{
		{"sign-up ok", &mockAuth{signUpID: 42}, "/auth/sign-up", `{"username":"ranger","password":"p"}`, http.StatusOK, "id", 42.0},
		{"sign-up taken", &mockAuth{signUpErr: repository.ErrUsernameTaken}, "/auth/sign-up", `{"username":"ranger","password":"p"}`, http.StatusConflict, "", nil},
		{"sign-up empty username", &mockAuth{signUpErr: service.ErrEmptyUsername}, "/auth/sign-up", `{"username":" ","password":"p"}`, http.StatusBadRequest, "", nil},
		{"sign-up missing password", &mockAuth{}, "/auth/sign-up", `{"username":"ranger"}`, http.StatusBadRequest, "", nil},
		{"sign-in ok", &mockAuth{genTokenToken: "tok123"}, "/auth/sign-in", `{"username":"ranger","password":"p"}`, http.StatusOK, "token", "tok123"},
		{"sign-in bad password", &mockAuth{genTokenErr: errors.New("invalid password")}, "/auth/sign-in", `{"username":"ranger","password":"bad"}`, http.StatusUnauthorized, "error", "invalid credentials"},
		{"sign-in bad body", &mockAuth{}, "/auth/sign-in", `{"username":1}`, http.StatusBadRequest, "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, &service.Service{Authorization: tc.auth}, tc.path, tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d; body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantKey == "" {
				return
			}
			var m map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if m[tc.wantKey] != tc.wantVal {
				t.Fatalf("%s = %v, want %v", tc.wantKey, m[tc.wantKey], tc.wantVal)
			}
		})
	}
}

func TestAuthHandlers_PassCredentialsThrough(t *testing.T) {
	auth := &mockAuth{genTokenToken: "t"}
	postJSON(t, &service.Service{Authorization: auth}, "/auth/sign-in", `{"username":"ranger","password":"s3cret"}`)
	if auth.lastGenUsername != "ranger" || auth.lastGenPassword != "s3cret" {
		t.Fatalf("credentials not forwarded: %q/%q", auth.lastGenUsername, auth.lastGenPassword)
	}
}
