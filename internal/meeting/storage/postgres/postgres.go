// internal/meeting/storage/postgres/postgres.go

// Package postgres — хранилище встреч и их участников.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/campushub/session-system/common/logger"
)

// ErrNotFound — встреча не существует.
var ErrNotFound = errors.New("postgres: meeting not found")

// Meeting — запись о встрече.
type Meeting struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository описывает интерфейс хранилища встреч.
type Repository interface {
	// ParticipantRoles возвращает карту userID -> роль для встречи.
	// Пустая карта означает, что у встречи нет участников (или самой
	// встречи нет) — авторизация трактует это как 404.
	ParticipantRoles(ctx context.Context, meetingID int64) (map[string]string, error)
	GetMeeting(ctx context.Context, id int64) (*Meeting, error)
	CloseMeeting(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close()
}

type meetingRepo struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// New подключается к Postgres и при необходимости применяет миграции.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if err := runMigrations(ctx, cfg.DSN); err != nil {
			return nil, err
		}
	}

	ctxConn, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pgxCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgx parse config: %w", err)
	}
	db, err := pgxpool.NewWithConfig(ctxConn, pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool init: %w", err)
	}
	if err := db.Ping(ctxConn); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}

	log.Info("postgres connected")
	return &meetingRepo{db: db, log: log.Named("postgres")}, nil
}

func (r *meetingRepo) ParticipantRoles(ctx context.Context, meetingID int64) (map[string]string, error) {
	ctx, span := otel.Tracer("storage/postgres").Start(ctx, "ParticipantRoles",
		trace.WithAttributes(attribute.Int64("meeting.id", meetingID)),
	)
	defer span.End()

	rows, err := r.db.Query(ctx,
		`SELECT user_id, role FROM meeting_participants WHERE meeting_id = $1`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]string)
	for rows.Next() {
		var userID, role string
		if err := rows.Scan(&userID, &role); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		roles[userID] = role
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return roles, nil
}

func (r *meetingRepo) GetMeeting(ctx context.Context, id int64) (*Meeting, error) {
	ctx, span := otel.Tracer("storage/postgres").Start(ctx, "GetMeeting",
		trace.WithAttributes(attribute.Int64("meeting.id", id)),
	)
	defer span.End()

	var m Meeting
	err := r.db.QueryRow(ctx,
		`SELECT id, title, status, created_at FROM meetings WHERE id = $1`, id).
		Scan(&m.ID, &m.Title, &m.Status, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query meeting: %w", err)
	}
	return &m, nil
}

func (r *meetingRepo) CloseMeeting(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("storage/postgres").Start(ctx, "CloseMeeting",
		trace.WithAttributes(attribute.Int64("meeting.id", id)),
	)
	defer span.End()

	tag, err := r.db.Exec(ctx,
		`UPDATE meetings SET status = 'CLOSED' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("close meeting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *meetingRepo) Ping(ctx context.Context) error { return r.db.Ping(ctx) }

func (r *meetingRepo) Close() { r.db.Close() }
