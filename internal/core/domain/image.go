package domain

import (
	"encoding/json"
	"time"
)

// Image mirrors one entry of the upstream /images listing.
type Image struct {
	ID        int64      `json:"id"`
	URL       string     `json:"url"`
	Hash      string     `json:"hash"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	NSFWLevel string     `json:"nsfwLevel"`
	Type      string     `json:"type"`
	CreatedAt *time.Time `json:"createdAt"`
	PostID    int64      `json:"postId"`
	Username  string     `json:"username"`

	// FilePath is set when the image file was downloaded to disk.
	FilePath string `json:"-"`
	// Raw holds the undecoded upstream entry for the data column.
	Raw json.RawMessage `json:"-"`
}
