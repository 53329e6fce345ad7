package constants

import (
	"fmt"
	"time"
)

// Cache key prefixes. Seat snapshots are deliberately never cached: the
// lazy expiry sweep must run against the database on every seat read.
const (
	PrefixEvent     = "seatwise:event"
	PrefixEventList = "seatwise:events:list"
)

// Cache TTLs per entity class.
const (
	TTLEvent     = 5 * time.Minute
	TTLEventList = 1 * time.Minute
)

// BuildEventKey returns the cache key for a single event.
func BuildEventKey(eventID string) string {
	return fmt.Sprintf("%s:%s", PrefixEvent, eventID)
}

// BuildEventListKey returns the cache key for a filtered event listing.
func BuildEventListKey(status string, page, limit int) string {
	return fmt.Sprintf("%s:%s:%d:%d", PrefixEventList, status, page, limit)
}
