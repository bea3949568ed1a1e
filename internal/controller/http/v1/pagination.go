package v1

const (
	defaultPage  uint64 = 1
	defaultLimit uint64 = 10
	maxLimit     uint64 = 100
)

// Pagination echoes the page window a listing response was built from.
type Pagination struct {
	Page       uint64 `json:"page"`
	Limit      uint64 `json:"limit"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}
