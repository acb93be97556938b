package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/guard"
	"github.com/gistda/internhub/internal/infrastructure/logger"
	"github.com/gistda/internhub/internal/reliability/retry"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:          srv.URL,
		Retry:            &retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffMultiplier: 2},
		BreakerThreshold: 10,
		BreakerCooldown:  time.Minute,
		HTTPClient:       srv.Client(),
	}, logger.Discard())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRemoteErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"details wins", `{"details":"d","error":"e","message":"m"}`, "d"},
		{"error before message", `{"error":"e","message":"m"}`, "e"},
		{"message", `{"message":"m"}`, "m"},
		{"empty fields", `{"error":""}`, "Request failed"},
		{"plain text", "  upstream down \n", "upstream down"},
		{"empty body", "", "Request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newRemoteError(http.StatusBadRequest, []byte(tt.body))
			if err.Message != tt.want || err.Status != http.StatusBadRequest {
				t.Fatalf("got %+v, want message %q", err, tt.want)
			}
		})
	}
}

func TestLoginStoresTokenAndSendsBearer(t *testing.T) {
	var sawAuth atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["email"] != "intern@example.com" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, domain.LoginResult{OK: true, Token: "jwt-1", User: &domain.User{ID: "u2"}})
		case "/api/auth/me":
			sawAuth.Store(r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, domain.User{ID: "u2", Email: "intern@example.com"})
		}
	})

	if c.Token() != "" {
		t.Fatal("fresh client should carry no token")
	}
	res, err := c.Login(context.Background(), "intern@example.com", "password")
	if err != nil || !res.OK {
		t.Fatalf("login: %+v %v", res, err)
	}
	if c.Token() != "jwt-1" {
		t.Fatalf("token = %q", c.Token())
	}
	me, err := c.Me(context.Background())
	if err != nil || me.ID != "u2" {
		t.Fatalf("me: %+v %v", me, err)
	}
	if got := sawAuth.Load(); got != "Bearer jwt-1" {
		t.Fatalf("authorization header = %v", got)
	}

	_, err = c.Login(context.Background(), "nobody@example.com", "x")
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Status != http.StatusUnauthorized || remote.Message != "Invalid credentials" {
		t.Fatalf("expected 401 remote error, got %v", err)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, []domain.Course{{ID: "c1"}})
	})
	courses, err := c.ListCourses(context.Background())
	if err != nil || len(courses) != 1 || calls.Load() != 3 {
		t.Fatalf("got %v %v after %d calls", courses, err, calls.Load())
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "course not found"})
	})
	_, err := c.ListCourses(context.Background())
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx was retried: %d calls", calls.Load())
	}
}

func TestPostIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := c.CreateCourse(context.Background(), domain.Course{Title: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("POST sent %d times", calls.Load())
	}
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := New(Config{
		BaseURL:          srv.URL,
		Retry:            &retry.Config{MaxAttempts: 1, InitialBackoff: time.Millisecond, BackoffMultiplier: 1},
		BreakerThreshold: 2,
		BreakerCooldown:  time.Minute,
		HTTPClient:       srv.Client(),
	}, logger.Discard())

	for i := 0; i < 2; i++ {
		_ = c.DeleteCourse(context.Background(), "c1")
	}
	err := c.DeleteCourse(context.Background(), "c1")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if !Unreachable(err) {
		t.Fatal("open circuit should count as unreachable")
	}
	if calls.Load() != 2 {
		t.Fatalf("open circuit still sent requests: %d", calls.Load())
	}
}

func TestClientErrorsDoNotOpenCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL, BreakerThreshold: 1, HTTPClient: srv.Client()}, logger.Discard())
	for i := 0; i < 3; i++ {
		err := c.DeleteUser(context.Background(), "u9")
		if errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("attempt %d: circuit opened on a 400", i)
		}
	}
}

func TestUnreachable(t *testing.T) {
	c := New(Config{
		BaseURL: "http://127.0.0.1:1",
		Retry:   &retry.Config{MaxAttempts: 1, BackoffMultiplier: 1},
	}, logger.Discard())
	_, err := c.ListUsers(context.Background())
	if err == nil || !Unreachable(err) {
		t.Fatalf("expected unreachable error, got %v", err)
	}
	if Unreachable(&RemoteError{Status: 500, Message: "x"}) {
		t.Fatal("an answer from the server is not unreachable")
	}
}

func TestPathIDsAreEscaped(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.DeleteSubmission(context.Background(), "a/b"); err != nil {
		t.Fatal(err)
	}
	if path != "/api/submissions/a%2Fb" {
		t.Fatalf("path = %q", path)
	}
}

func TestUploadDocumentEncodesFile(t *testing.T) {
	var got UploadRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		writeJSON(w, http.StatusCreated, domain.ProjectDocument{ID: "d1", PlanID: got.PlanID, FileName: got.FileName})
	})
	docs := NewDocuments(c, logger.Discard())
	doc, err := docs.Upload(context.Background(), "p1", "Report.PDF", []byte("hello"), "draft")
	if err != nil || doc.ID != "d1" {
		t.Fatalf("upload: %+v %v", doc, err)
	}
	if got.FileType != "application/pdf" {
		t.Fatalf("file type = %q", got.FileType)
	}
	if data, _ := base64.StdEncoding.DecodeString(got.FileData); string(data) != "hello" {
		t.Fatalf("file data = %q", got.FileData)
	}
	if len(docs.ForPlan("p1")) != 1 {
		t.Fatal("uploaded document not cached")
	}
}

func TestNavigateQueryEscapesPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/navigate" || r.URL.Query().Get("path") != "/courses/c1?tab=a&b" {
			t.Errorf("unexpected request %s", r.URL)
		}
		writeJSON(w, http.StatusOK, guard.Decision{Action: guard.Allow, Target: "/courses/c1", Reason: guard.ReasonAllowed})
	})
	d, err := c.Navigate(context.Background(), "/courses/c1?tab=a&b")
	if err != nil || d.Action != guard.Allow {
		t.Fatalf("Navigate() = %+v, %v", d, err)
	}
}
