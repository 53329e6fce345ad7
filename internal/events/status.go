package events

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// IsBookable reports whether seats of this event may be held or reserved.
func (s EventStatus) IsBookable() bool {
	return s == EventStatusPublished
}
