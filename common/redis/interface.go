package redis

import (
	"context"
	"time"
)

// KV описывает контракт key-value хранилища сессионного состояния.
// TTL обязателен на каждой записи: постоянных ключей в хранилище нет,
// устаревшие записи вычищаются самим Redis'ом.
type KV interface {
	// Set сохраняет значение по ключу с TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get возвращает значение по ключу или ErrNotFound, если нет.
	// Ошибки соединения и пр. возвращаются как error.
	Get(ctx context.Context, key string) (string, error)
	// Delete удаляет ключ. Отсутствие ключа не является ошибкой.
	Delete(ctx context.Context, key string) error
	// CompareAndSwap атомарно заменяет значение ключа на newValue с новым
	// TTL, только если текущее значение равно oldValue. Возвращает false,
	// если значение изменилось или ключ исчез.
	CompareAndSwap(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) (bool, error)
	// Ping проверяет соединение.
	Ping(ctx context.Context) error
	// Close закрывает клиент и освобождает ресурсы.
	Close() error
}
