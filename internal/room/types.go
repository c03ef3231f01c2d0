package room

import (
	"errors"
	"time"
)

// Room represents a call room owned by a single user account.
type Room struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	OwnerID       string    `json:"owner_id"`
	OwnerUsername string    `json:"owner"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sentinel errors for room operations.
var (
	// ErrRoomNotFound indicates the requested room does not exist.
	ErrRoomNotFound = errors.New("room not found")
)

// maxTitleLength bounds room titles at the API boundary.
const maxTitleLength = 255

// ValidTitle reports whether a room title is acceptable: non-empty and
// within the length cap.
func ValidTitle(title string) bool {
	return title != "" && len(title) <= maxTitleLength
}
