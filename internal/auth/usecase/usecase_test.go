package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campushub/session-system/common/autherr"
	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/common/redis"
	"github.com/campushub/session-system/internal/auth/usecase"
	"github.com/campushub/session-system/internal/session"
	"github.com/campushub/session-system/internal/token"
)

type fixture struct {
	codec    *token.Codec
	sessions *session.Store
	login    usecase.LoginHandler
	reissue  usecase.ReissueHandler
	logout   usecase.LogoutHandler
}

func newFixture(t *testing.T, accessTTL, refreshTTL, rotateBelow time.Duration) *fixture {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		Secret:     "unit-test-secret",
		Issuer:     "campushub-auth",
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	log, err := logger.New(logger.Config{Level: "error", DevMode: true})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	sessions := session.NewStore(redis.NewMemory())
	return &fixture{
		codec:    codec,
		sessions: sessions,
		login:    usecase.NewLoginHandler(codec, sessions, log),
		reissue:  usecase.NewReissueHandler(codec, sessions, rotateBelow, log),
		logout:   usecase.NewLogoutHandler(codec, sessions, log),
	}
}

func bearer(tok string) string { return "Bearer " + tok }

func TestLoginStoresRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute, time.Hour, time.Minute)

	pair, err := f.login.Handle(ctx, "42", "ROLE_USER")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := f.codec.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.Subject() != "42" || claims.Authority != "ROLE_USER" {
		t.Errorf("claims = (%q, %q)", claims.Subject(), claims.Authority)
	}

	stored, err := f.sessions.GetRefresh(ctx, "42")
	if err != nil {
		t.Fatalf("stored refresh: %v", err)
	}
	if stored != pair.RefreshToken {
		t.Error("stored refresh differs from returned refresh")
	}
}

func TestLoginOverwritesPriorSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute, time.Hour, time.Minute)

	first, _ := f.login.Handle(ctx, "42", "ROLE_USER")
	second, _ := f.login.Handle(ctx, "42", "ROLE_USER")

	stored, _ := f.sessions.GetRefresh(ctx, "42")
	if stored != second.RefreshToken {
		t.Fatal("second login did not overwrite the session")
	}
	// Старый refresh структурно валиден, но reissue с ним отклоняется.
	expired, _ := f.codec.Issue("42", "ROLE_USER", -time.Second)
	_, err := f.reissue.Handle(ctx, usecase.ReissueRequest{
		AuthorizationHeader: bearer(expired),
		RefreshToken:        first.RefreshToken,
	})
	if !errors.Is(err, autherr.ErrInvalidRefreshToken) {
		t.Errorf("reissue with stale refresh: err = %v, want InvalidRefreshToken", err)
	}
}

func TestReissueHappyPathNoRotation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute, time.Hour, time.Minute) // остаток >> порога

	pair, _ := f.login.Handle(ctx, "42", "ROLE_USER")
	expired, _ := f.codec.Issue("42", "ROLE_USER", -time.Second)

	res, err := f.reissue.Handle(ctx, usecase.ReissueRequest{
		AuthorizationHeader: bearer(expired),
		RefreshToken:        pair.RefreshToken,
	})
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if res.Rotation != usecase.NotRotated {
		t.Errorf("rotation = %v, want NotRotated", res.Rotation)
	}
	if res.RefreshToken != "" {
		t.Error("refresh returned without rotation")
	}
	claims, err := f.codec.Verify(res.AccessToken)
	if err != nil {
		t.Fatalf("verify new access: %v", err)
	}
	if claims.Subject() != "42" || claims.Authority != "ROLE_USER" {
		t.Errorf("new access claims = (%q, %q)", claims.Subject(), claims.Authority)
	}
	// SessionStore не тронут.
	stored, _ := f.sessions.GetRefresh(ctx, "42")
	if stored != pair.RefreshToken {
		t.Error("refresh rotated below threshold")
	}
}

func TestReissueRotatesNearExpiry(t *testing.T) {
	ctx := context.Background()
	// Порог больше RefreshTTL: любой refresh "почти истёк".
	f := newFixture(t, time.Minute, time.Hour, 2*time.Hour)

	pair, _ := f.login.Handle(ctx, "42", "ROLE_USER")
	expired, _ := f.codec.Issue("42", "ROLE_USER", -time.Second)

	res, err := f.reissue.Handle(ctx, usecase.ReissueRequest{
		AuthorizationHeader: bearer(expired),
		RefreshToken:        pair.RefreshToken,
	})
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if res.Rotation != usecase.Rotated || res.RefreshToken == "" {
		t.Fatalf("rotation = %v, refresh = %q", res.Rotation, res.RefreshToken)
	}
	stored, _ := f.sessions.GetRefresh(ctx, "42")
	if stored != res.RefreshToken {
		t.Error("store does not hold the rotated refresh")
	}
	// Старое значение больше не принимается.
	_, err = f.reissue.Handle(ctx, usecase.ReissueRequest{
		AuthorizationHeader: bearer(expired),
		RefreshToken:        pair.RefreshToken,
	})
	if !errors.Is(err, autherr.ErrInvalidRefreshToken) {
		t.Errorf("reissue with rotated-out refresh: err = %v", err)
	}
}

func TestReissueRejectsLiveAccessToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute, time.Hour, time.Minute)

	pair, _ := f.login.Handle(ctx, "42", "ROLE_USER")
	_, err := f.reissue.Handle(ctx, usecase.ReissueRequest{
		AuthorizationHeader: bearer(pair.AccessToken),
		RefreshToken:        pair.RefreshToken,
	})
	if !errors.Is(err, autherr.ErrAccessTokenNotExpired) {
		t.Fatalf("err = %v, want AccessTokenNotExpired", err)
	}
	// Отказ до шага ротации: состояние не изменилось.
	stored, _ := f.sessions.GetRefresh(ctx, "42")
	if stored != pair.RefreshToken {
		t.Error("session mutated by rejected reissue")
	}
}

func TestReissueFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute, time.Hour, time.Minute)

	pair, _ := f.login.Handle(ctx, "42", "ROLE_USER")
	expired, _ := f.codec.Issue("42", "ROLE_USER", -time.Second)

	tests := []struct {
		name string
		req  usecase.ReissueRequest
		want *autherr.Error
	}{
		{"no header", usecase.ReissueRequest{RefreshToken: pair.RefreshToken}, autherr.ErrNoAuthHeader},
		{"malformed header", usecase.ReissueRequest{AuthorizationHeader: "Basic abc"}, autherr.ErrNoAuthHeader},
		{"garbage access", usecase.ReissueRequest{AuthorizationHeader: bearer("garbage")}, autherr.ErrInvalidAccessToken},
		{"no refresh cookie", usecase.ReissueRequest{AuthorizationHeader: bearer(expired)}, autherr.ErrRefreshTokenNotExist},
		{"foreign refresh", usecase.ReissueRequest{AuthorizationHeader: bearer(expired), RefreshToken: "other"}, autherr.ErrInvalidRefreshToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reissue.Handle(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReissueConcurrentRotation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute, time.Hour, 2*time.Hour) // ротация всегда

	pair, _ := f.login.Handle(ctx, "42", "ROLE_USER")
	expired, _ := f.codec.Issue("42", "ROLE_USER", -time.Second)

	const racers = 8
	var wg sync.WaitGroup
	type outcome struct {
		res *usecase.ReissueResult
		err error
	}
	outcomes := make(chan outcome, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.reissue.Handle(ctx, usecase.ReissueRequest{
				AuthorizationHeader: bearer(expired),
				RefreshToken:        pair.RefreshToken,
			})
			outcomes <- outcome{res, err}
		}()
	}
	wg.Wait()
	close(outcomes)

	var rotated, lost int
	for o := range outcomes {
		switch {
		case o.err == nil && o.res.Rotation == usecase.Rotated:
			rotated++
		case errors.Is(o.err, autherr.ErrInvalidRefreshToken):
			lost++
		default:
			t.Errorf("unexpected outcome: res=%+v err=%v", o.res, o.err)
		}
	}
	if rotated != 1 {
		t.Errorf("rotations = %d, want exactly 1", rotated)
	}
	if lost != racers-1 {
		t.Errorf("losers = %d, want %d", lost, racers-1)
	}
}

func TestLogoutRevokesAndDeletesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute, time.Hour, time.Minute)

	pair, _ := f.login.Handle(ctx, "42", "ROLE_USER")

	if err := f.logout.Handle(ctx, bearer(pair.AccessToken)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	revoked, err := f.sessions.IsRevoked(ctx, pair.AccessToken)
	if err != nil || !revoked {
		t.Fatalf("IsRevoked = (%v, %v), want (true, nil)", revoked, err)
	}
	if _, err := f.sessions.GetRefresh(ctx, "42"); !errors.Is(err, session.ErrNoSession) {
		t.Error("session survived logout")
	}

	// Второй logout тем же токеном — идемпотентный успех.
	if err := f.logout.Handle(ctx, bearer(pair.AccessToken)); err != nil {
		t.Errorf("second logout: %v", err)
	}
}

func TestLogoutRejectsInvalidTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute, time.Hour, time.Minute)

	if err := f.logout.Handle(ctx, ""); !errors.Is(err, autherr.ErrNoAuthHeader) {
		t.Errorf("empty header: err = %v", err)
	}
	expired, _ := f.codec.Issue("42", "ROLE_USER", -time.Second)
	if err := f.logout.Handle(ctx, bearer(expired)); !errors.Is(err, autherr.ErrInvalidAccessToken) {
		t.Errorf("expired token: err = %v", err)
	}
	if err := f.logout.Handle(ctx, bearer("garbage")); !errors.Is(err, autherr.ErrInvalidAccessToken) {
		t.Errorf("garbage token: err = %v", err)
	}
}

// Сквозной сценарий: login → истечение access → reissue без ротации →
// logout → reissue тем же refresh'ем отклоняется.
func TestSessionLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	// TTL не короче секунды: exp в токене хранится с точностью до
	// секунды, и sub-секундный access истёк бы уже при выпуске.
	f := newFixture(t, time.Second, time.Hour, time.Minute)

	pair, err := f.login.Handle(ctx, "42", "ROLE_USER")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	time.Sleep(1500 * time.Millisecond) // access истёк

	res, err := f.reissue.Handle(ctx, usecase.ReissueRequest{
		AuthorizationHeader: bearer(pair.AccessToken),
		RefreshToken:        pair.RefreshToken,
	})
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if res.Subject != "42" || res.Rotation != usecase.NotRotated {
		t.Fatalf("res = %+v", res)
	}

	if err := f.logout.Handle(ctx, bearer(res.AccessToken)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.sessions.GetRefresh(ctx, "42"); !errors.Is(err, session.ErrNoSession) {
		t.Fatal("UID_42 survived logout")
	}

	// Ждём, пока истекут и новый access, и его blacklist-маркер
	// (TTL маркера равен остатку жизни токена).
	time.Sleep(2500 * time.Millisecond)

	_, err = f.reissue.Handle(ctx, usecase.ReissueRequest{
		AuthorizationHeader: bearer(res.AccessToken),
		RefreshToken:        pair.RefreshToken,
	})
	if !errors.Is(err, autherr.ErrInvalidRefreshToken) {
		t.Fatalf("reissue after logout: err = %v, want InvalidRefreshToken", err)
	}
}

// Отозванный access-токен не годится даже для reissue.
func TestReissueRejectsRevokedAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute, time.Hour, time.Minute)

	pair, _ := f.login.Handle(ctx, "42", "ROLE_USER")
	if err := f.logout.Handle(ctx, bearer(pair.AccessToken)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err := f.reissue.Handle(ctx, usecase.ReissueRequest{
		AuthorizationHeader: bearer(pair.AccessToken),
		RefreshToken:        pair.RefreshToken,
	})
	if !errors.Is(err, autherr.ErrTokenRevoked) {
		t.Fatalf("err = %v, want TokenRevoked", err)
	}
}
