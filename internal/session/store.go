// internal/session/store.go

// Package session — хранилище сессионного состояния поверх общего KV.
// Две семьи записей: активный refresh-токен пользователя (UID_<id>) и
// маркеры отозванных access-токенов (BLACKLIST_<token>).
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campushub/session-system/common/redis"
)

const (
	uidPrefix       = "UID_"
	blacklistPrefix = "BLACKLIST_"
)

// ErrNoSession возвращается, когда для пользователя нет активной сессии.
var ErrNoSession = errors.New("session: not found")

// Store инкапсулирует схему ключей SessionStore.
type Store struct {
	kv redis.KV
}

// NewStore создаёт Store поверх готового KV.
func NewStore(kv redis.KV) *Store {
	return &Store{kv: kv}
}

func refreshKey(userID string) string   { return uidPrefix + userID }
func revokeKey(accessToken string) string { return blacklistPrefix + accessToken }

// SaveRefresh перезаписывает активный refresh-токен пользователя.
// Последняя запись выигрывает: одна активная сессия на пользователя.
func (s *Store) SaveRefresh(ctx context.Context, userID, refreshToken string, ttl time.Duration) error {
	if err := s.kv.Set(ctx, refreshKey(userID), refreshToken, ttl); err != nil {
		return fmt.Errorf("session: save refresh: %w", err)
	}
	return nil
}

// GetRefresh возвращает сохранённый refresh-токен или ErrNoSession.
func (s *Store) GetRefresh(ctx context.Context, userID string) (string, error) {
	val, err := s.kv.Get(ctx, refreshKey(userID))
	if errors.Is(err, redis.ErrNotFound) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("session: get refresh: %w", err)
	}
	return val, nil
}

// SwapRefresh атомарно заменяет refresh-токен пользователя: запись
// происходит, только если в хранилище всё ещё лежит oldToken. false —
// ротацию выиграл конкурирующий запрос.
func (s *Store) SwapRefresh(ctx context.Context, userID, oldToken, newToken string, ttl time.Duration) (bool, error) {
	ok, err := s.kv.CompareAndSwap(ctx, refreshKey(userID), oldToken, newToken, ttl)
	if err != nil {
		return false, fmt.Errorf("session: swap refresh: %w", err)
	}
	return ok, nil
}

// DeleteRefresh удаляет сессию пользователя. Отсутствие сессии не
// является ошибкой (logout идемпотентен).
func (s *Store) DeleteRefresh(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, refreshKey(userID)); err != nil {
		return fmt.Errorf("session: delete refresh: %w", err)
	}
	return nil
}

// Revoke помечает access-токен отозванным. TTL равен остатку жизни
// токена: маркер исчезает ровно тогда, когда токен истёк бы сам.
func (s *Store) Revoke(ctx context.Context, accessToken string, ttl time.Duration) error {
	if err := s.kv.Set(ctx, revokeKey(accessToken), "revoked", ttl); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}

// IsRevoked сообщает, числится ли access-токен в чёрном списке.
// Ошибка хранилища возвращается как есть: вызывающая сторона обязана
// трактовать её как отказ (fail closed), а не как "не отозван".
func (s *Store) IsRevoked(ctx context.Context, accessToken string) (bool, error) {
	_, err := s.kv.Get(ctx, revokeKey(accessToken))
	if errors.Is(err, redis.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: revocation check: %w", err)
	}
	return true, nil
}
