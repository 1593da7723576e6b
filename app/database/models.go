package database

import (
	"time"
)

// Source is one registered feed endpoint. Unique by FeedURL.
type Source struct {
	ID        int64
	Name      string
	FeedURL   string
	CreatedAt time.Time
}
