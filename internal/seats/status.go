package seats

// Status is the seat lifecycle state.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusSold      Status = "SOLD"
	StatusBlocked   Status = "BLOCKED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusSold, StatusBlocked:
		return true
	}
	return false
}
