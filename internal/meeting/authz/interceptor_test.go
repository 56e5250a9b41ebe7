package authz_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/internal/meeting/authz"
	"github.com/campushub/session-system/internal/meeting/storage/postgres"
	"github.com/campushub/session-system/internal/token"
)

// fakeRepo отдаёт участников из карты; err имитирует сбой хранилища.
type fakeRepo struct {
	participants map[int64]map[string]string
	err          error
}

func (f *fakeRepo) ParticipantRoles(_ context.Context, meetingID int64) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	roles := f.participants[meetingID]
	out := make(map[string]string, len(roles))
	for k, v := range roles {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRepo) GetMeeting(context.Context, int64) (*postgres.Meeting, error) {
	return nil, postgres.ErrNotFound
}
func (f *fakeRepo) CloseMeeting(context.Context, int64) error { return postgres.ErrNotFound }
func (f *fakeRepo) Ping(context.Context) error                { return nil }
func (f *fakeRepo) Close()                                    {}

func issueToken(t *testing.T, subject string) string {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		Secret:     "meeting-test-secret",
		Issuer:     "campushub-auth",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	tok, err := codec.Issue(subject, "ROLE_USER", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

// newRouter монтирует backend под /meetings/{id} за интерсептором.
func newRouter(repo postgres.Repository, backend http.HandlerFunc, roles ...string) http.Handler {
	log, err := logger.New(logger.Config{Level: "error", DevMode: true})
	if err != nil {
		panic(err)
	}
	az := authz.New(repo, log)
	r := chi.NewRouter()
	r.Route("/meetings/{id}", func(r chi.Router) {
		r.With(az.Require(roles...)).Get("/", backend)
	})
	return r
}

func doRequest(h http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAdmitsParticipant(t *testing.T) {
	repo := &fakeRepo{participants: map[int64]map[string]string{
		7: {"42": "MEMBER", "1": "HOST"},
	}}

	var gotRole string
	backend := func(w http.ResponseWriter, r *http.Request) {
		gotRole, _ = r.Context().Value(authz.RoleKey).(string)
		w.WriteHeader(http.StatusOK)
	}

	rec := doRequest(newRouter(repo, backend), "/meetings/7", "Bearer "+issueToken(t, "42"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotRole != "MEMBER" {
		t.Errorf("role in context = %q, want MEMBER", gotRole)
	}
}

func TestRequireRoleAllowList(t *testing.T) {
	repo := &fakeRepo{participants: map[int64]map[string]string{
		7: {"42": "MEMBER", "1": "HOST"},
	}}
	backend := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	cases := []struct {
		name       string
		subject    string
		roles      []string
		wantStatus int
	}{
		{"host passes HOST gate", "1", []string{"HOST"}, http.StatusOK},
		{"member blocked by HOST gate", "42", []string{"HOST"}, http.StatusForbidden},
		{"outsider blocked", "99", nil, http.StatusForbidden},
		{"member passes open gate", "42", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(newRouter(repo, backend, tc.roles...),
				"/meetings/7", "Bearer "+issueToken(t, tc.subject))
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestRequireMeetingWithoutParticipantsIsNotFound(t *testing.T) {
	repo := &fakeRepo{participants: map[int64]map[string]string{}}
	backend := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	rec := doRequest(newRouter(repo, backend), "/meetings/404", "Bearer "+issueToken(t, "42"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: empty meeting must look absent, not forbidden", rec.Code)
	}
}

func TestRequireRejectsBadTokens(t *testing.T) {
	repo := &fakeRepo{participants: map[int64]map[string]string{
		7: {"42": "MEMBER"},
	}}
	backend := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"malformed token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(newRouter(repo, backend), "/meetings/7", tc.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireFailsClosedOnStoreError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("pg: connection refused")}
	backendCalled := false
	backend := func(w http.ResponseWriter, _ *http.Request) {
		backendCalled = true
		w.WriteHeader(http.StatusOK)
	}

	rec := doRequest(newRouter(repo, backend), "/meetings/7", "Bearer "+issueToken(t, "42"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if backendCalled {
		t.Fatal("backend must not run when participant lookup fails")
	}
}
