package repository

import (
	"g2-yoyodex/internal/cache"
)

// KVRepository is a cache.Backend persisted in a SQL database.
type KVRepository interface {
	cache.Backend
}

var _ KVRepository = (*SQLStore)(nil)
