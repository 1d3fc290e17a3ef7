package follow

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/user"
)

// ErrUserNotFound reports an edge endpoint that does not resolve to an
// account.
var ErrUserNotFound = errors.New("user not found")

// Repository owns the follow edges.
type Repository interface {
	// Insert creates the edge if absent and returns it either way.
	Insert(ctx context.Context, followerID, followedID string) (*Follow, error)
	// Delete removes the edge; deleting an absent edge is a no-op.
	Delete(ctx context.Context, followerID, followedID string) error
	Following(ctx context.Context, userID string, page, limit int) ([]user.User, int64, error)
	Followers(ctx context.Context, userID string, page, limit int) ([]user.User, int64, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, followerID, followedID string) (*Follow, error) {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO follows (follower_id, followed_id)
		 VALUES ($1::uuid, $2::uuid)
		 ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		followerID, followedID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var f Follow
	err = r.Pool.QueryRow(ctx,
		`SELECT id::text, follower_id::text, followed_id::text, created_at
		 FROM follows
		 WHERE follower_id = $1::uuid AND followed_id = $2::uuid`,
		followerID, followedID,
	).Scan(&f.ID, &f.FollowerID, &f.FollowedID, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, followerID, followedID string) error {
	_, err := r.Pool.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1::uuid AND followed_id = $2::uuid`,
		followerID, followedID,
	)
	return err
}

func (r *PostgresRepository) Following(ctx context.Context, userID string, page, limit int) ([]user.User, int64, error) {
	return r.listEdgeUsers(ctx, userID, page, limit, true)
}

func (r *PostgresRepository) Followers(ctx context.Context, userID string, page, limit int) ([]user.User, int64, error) {
	return r.listEdgeUsers(ctx, userID, page, limit, false)
}

func (r *PostgresRepository) listEdgeUsers(ctx context.Context, userID string, page, limit int, following bool) ([]user.User, int64, error) {
	joinCol, whereCol := "f.followed_id", "f.follower_id"
	if !following {
		joinCol, whereCol = "f.follower_id", "f.followed_id"
	}

	var total int64
	err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM follows f WHERE `+whereCol+` = $1::uuid`,
		userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT u.id::text, u.name, u.last_name, u.bio, u.nick, u.email, u.password, u.role, u.image, u.created_at
		 FROM follows f
		 JOIN users u ON u.id = `+joinCol+`
		 WHERE `+whereCol+` = $1::uuid
		 ORDER BY f.created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.LastName, &u.Bio, &u.Nick,
			&u.Email, &u.Password, &u.Role, &u.Image, &u.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *PostgresRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT followed_id::text FROM follows WHERE follower_id = $1::uuid`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
