package user

import "time"

// User is a persisted account record. Password holds the bcrypt hash and
// is never serialized.
type User struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Bio       *string   `db:"bio" json:"bio,omitempty"`
	Nick      string    `db:"nick" json:"nick"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	Role      string    `db:"role" json:"role"`
	Image     string    `db:"image" json:"image"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PublicUser is the projection sent on reads: no password hash, no role.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LastName  string    `json:"last_name"`
	Bio       *string   `json:"bio,omitempty"`
	Nick      string    `json:"nick"`
	Email     string    `json:"email"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Nick:      u.Nick,
		Email:     u.Email,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
	}
}

type registerRequest struct {
	Name     string  `json:"name"`
	LastName string  `json:"last_name"`
	Bio      *string `json:"bio"`
	Nick     string  `json:"nick"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// updateRequest is the allow-list for self-updates. Role, image and any
// token-derived fields a client smuggles into the payload are simply not
// decoded, so they can never reach the store through this path.
type updateRequest struct {
	Name     string  `json:"name"`
	LastName string  `json:"last_name"`
	Bio      *string `json:"bio"`
	Nick     string  `json:"nick"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}
