// Package store — key-value хранилища для снимков конфигурации и заявок.
package store

import (
	"context"
	"errors"
)

// ErrClosed возвращается при обращении к закрытому хранилищу.
var ErrClosed = errors.New("store is closed")

// Store — именованные записи (аналог localStorage браузера).
//
// Get возвращает ok=false, если записи нет. Put перезаписывает запись целиком.
// Keys возвращает отсортированные ключи с заданным префиксом.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
