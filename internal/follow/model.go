package follow

import "time"

// Follow is a directed edge: the follower sees the followed account's
// publications in their feed. At most one edge per ordered pair.
type Follow struct {
	ID         string    `db:"id" json:"id"`
	FollowerID string    `db:"follower_id" json:"follower_id"`
	FollowedID string    `db:"followed_id" json:"followed_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type followRequest struct {
	Followed string `json:"followed"`
}
