package publication

import "time"

// Publication is a post authored by a user, optionally carrying a media
// blob key in File.
type Publication struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Text      string    `db:"text" json:"text"`
	File      *string   `db:"file" json:"file,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type saveRequest struct {
	Text string `json:"text"`
}
