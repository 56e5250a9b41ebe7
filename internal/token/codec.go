// internal/token/codec.go

// Package token кодирует и проверяет компактные подписанные токены
// (HS256). Access-токен несёт subject и authority; refresh-токен
// анонимный — только issuer/iat/exp.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Ошибки проверки токена.
var (
	ErrSignatureInvalid = errors.New("token: signature invalid")
	ErrExpired          = errors.New("token: expired")
	ErrMalformed        = errors.New("token: malformed")
	// ErrNotExpired возвращает VerifyExpired для ещё живого токена.
	ErrNotExpired = errors.New("token: not expired yet")
)

// Claims — полезная нагрузка токена.
type Claims struct {
	// Authority — единственная роль субъекта, сравнивается строго
	// по строке (иерархии ролей нет).
	Authority string `json:"auth,omitempty"`
	jwt.RegisteredClaims
}

// Subject возвращает subject (user id) или пустую строку.
func (c *Claims) Subject() string { return c.RegisteredClaims.Subject }

// ExpiresAt возвращает момент истечения токена.
func (c *Claims) ExpiresAt() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// Config описывает параметры подписи. Ключ передаётся явно при
// конструировании: никакого процессного mutable-состояния.
type Config struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// Validate проверяет обязательные поля.
func (c Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("token: secret is required")
	}
	if c.Issuer == "" {
		return fmt.Errorf("token: issuer is required")
	}
	// exp сериализуется с точностью до секунды: токен с TTL короче
	// секунды истекает в момент выпуска.
	if c.AccessTTL < time.Second || c.RefreshTTL < time.Second {
		return fmt.Errorf("token: access_ttl and refresh_ttl must be at least 1s")
	}
	return nil
}

// Codec подписывает и проверяет токены одним симметричным ключом.
type Codec struct {
	secret []byte
	issuer string

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec создаёт Codec по конфигу.
func NewCodec(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Codec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// AccessTTL возвращает сконфигурированное время жизни access-токена.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL возвращает сконфигурированное время жизни refresh-токена.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// Issue строит подписанный access-токен с subject и authority.
func (c *Codec) Issue(subject, authority string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Authority: authority,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// IssueAnonymous строит подписанный токен без subject/authority.
// Используется для refresh-токенов: вся привязка к пользователю живёт
// на сервере, в SessionStore.
func (c *Codec) IssueAnonymous(ttl time.Duration) (string, error) {
	now := time.Now()
	// jti делает каждый refresh-токен уникальным: без него два токена,
	// выпущенные в одну секунду, совпали бы байт в байт и ротация
	// стала бы неразличимой.
	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	return c.secret, nil
}

// Verify валидирует подпись, структуру и срок токена. Успех — только
// когда все три проверки прошли.
func (c *Codec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	return claims, nil
}

// VerifyExpired принимает ТОЛЬКО подлинно подписанный, но истёкший
// токен и возвращает claims из этого же разбора. Единственная точка,
// где claims истёкшего токена считаются доверенными: извлечение
// subject — побочный продукт авторитетной проверки подписи, а не
// отдельный неаутентифицированный decode.
func (c *Codec) VerifyExpired(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
	)
	switch {
	case err == nil:
		return nil, ErrNotExpired
	// Чужой issuer проверяется до ветки "истёк": jwt склеивает ошибки
	// claims, и токен с неверным issuer и истёкшим сроком попал бы в
	// expired-ветку как доверенный.
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, mapJWTError(err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return claims, nil
	default:
		return nil, mapJWTError(err)
	}
}

// DecodeUnverified разбирает payload без проверки подписи. Допустим
// только за периметром, после edge-валидации; для авторизационных
// решений на периметре не используется. Ключ не нужен, поэтому функция
// пакетная: внутренним сервисам не приходится держать секрет подписи.
func DecodeUnverified(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// DecodeUnverified — см. пакетную функцию DecodeUnverified.
func (c *Codec) DecodeUnverified(raw string) (*Claims, error) {
	return DecodeUnverified(raw)
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
