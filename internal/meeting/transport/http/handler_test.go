package http_test

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/internal/meeting/authz"
	"github.com/campushub/session-system/internal/meeting/storage/postgres"
	transport "github.com/campushub/session-system/internal/meeting/transport/http"
	"github.com/campushub/session-system/internal/token"
)

type fakeRepo struct {
	meetings     map[int64]*postgres.Meeting
	participants map[int64]map[string]string
}

func (f *fakeRepo) ParticipantRoles(_ context.Context, id int64) (map[string]string, error) {
	return f.participants[id], nil
}

func (f *fakeRepo) GetMeeting(_ context.Context, id int64) (*postgres.Meeting, error) {
	m, ok := f.meetings[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) CloseMeeting(_ context.Context, id int64) error {
	m, ok := f.meetings[id]
	if !ok {
		return postgres.ErrNotFound
	}
	m.Status = "CLOSED"
	return nil
}

func (f *fakeRepo) Ping(context.Context) error { return nil }
func (f *fakeRepo) Close()                     {}

func newFixture(t *testing.T) (stdhttp.Handler, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{
		meetings: map[int64]*postgres.Meeting{
			7: {ID: 7, Title: "standup", Status: "OPEN", CreatedAt: time.Now()},
		},
		participants: map[int64]map[string]string{
			7: {"1": "HOST", "42": "MEMBER"},
		},
	}
	log, err := logger.New(logger.Config{Level: "error", DevMode: true})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	router := transport.Routes(transport.NewHandler(repo, log), authz.New(repo, log), log)
	return router, repo
}

func bearer(t *testing.T, subject string) string {
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
	return "Bearer " + tok
}

func doRequest(h stdhttp.Handler, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", authHeader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetMeetingAsParticipant(t *testing.T) {
	router, _ := newFixture(t)

	rec := doRequest(router, stdhttp.MethodGet, "/meetings/7", bearer(t, "42"))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var m postgres.Meeting
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if m.ID != 7 || m.Title != "standup" {
		t.Errorf("meeting = %+v, want id=7 title=standup", m)
	}
}

func TestCloseMeetingHostOnly(t *testing.T) {
	router, repo := newFixture(t)

	// Рядовой участник закрыть встречу не может.
	rec := doRequest(router, stdhttp.MethodPost, "/meetings/7/close", bearer(t, "42"))
	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("member close: status = %d, want 403", rec.Code)
	}
	if repo.meetings[7].Status != "OPEN" {
		t.Fatal("meeting must stay open after rejected close")
	}

	rec = doRequest(router, stdhttp.MethodPost, "/meetings/7/close", bearer(t, "1"))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("host close: status = %d, want 200", rec.Code)
	}
	if repo.meetings[7].Status != "CLOSED" {
		t.Errorf("status = %q, want CLOSED", repo.meetings[7].Status)
	}
}

func TestGetMeetingUnknownIDIsNotFound(t *testing.T) {
	router, _ := newFixture(t)

	rec := doRequest(router, stdhttp.MethodGet, "/meetings/404", bearer(t, "42"))
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
