package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// Repository is the store behind the account registry.
type Repository interface {
	Insert(ctx context.Context, u *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	ExistsByEmailOrNick(ctx context.Context, email, nick string) (bool, error)
	ExistsOther(ctx context.Context, id, email, nick string) (bool, error)
	List(ctx context.Context, page, limit int) ([]User, int64, error)
	Update(ctx context.Context, u *User) (*User, error)
	SetImage(ctx context.Context, id, key string) (*User, error)
}

const userColumns = `id::text, name, last_name, bio, nick, email, password, role, image, created_at`

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, u *User) (*User, error) {
	row := r.Pool.QueryRow(ctx,
		`INSERT INTO users (name, last_name, bio, nick, email, password)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		u.Name, u.LastName, u.Bio, u.Nick, u.Email, u.Password,
	)
	return scanUser(row)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		email,
	)
	return scanUser(row)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1::uuid`,
		id,
	)
	return scanUser(row)
}

func (r *PostgresRepository) ExistsByEmailOrNick(ctx context.Context, email, nick string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM users
			WHERE lower(email) = lower($1) OR lower(nick) = lower($2)
		 )`,
		email, nick,
	).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) ExistsOther(ctx context.Context, id, email, nick string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM users
			WHERE (lower(email) = lower($1) OR lower(nick) = lower($2))
			  AND id <> $3::uuid
		 )`,
		email, nick, id,
	).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) List(ctx context.Context, page, limit int) ([]User, int64, error) {
	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 ORDER BY created_at ASC
		 LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, u *User) (*User, error) {
	row := r.Pool.QueryRow(ctx,
		`UPDATE users
		 SET name = $2, last_name = $3, bio = $4, nick = $5, email = $6, password = $7
		 WHERE id = $1::uuid
		 RETURNING `+userColumns,
		u.ID, u.Name, u.LastName, u.Bio, u.Nick, u.Email, u.Password,
	)
	return scanUser(row)
}

func (r *PostgresRepository) SetImage(ctx context.Context, id, key string) (*User, error) {
	row := r.Pool.QueryRow(ctx,
		`UPDATE users SET image = $2 WHERE id = $1::uuid RETURNING `+userColumns,
		id, key,
	)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.LastName, &u.Bio, &u.Nick,
		&u.Email, &u.Password, &u.Role, &u.Image, &u.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// mapError normalizes driver errors: no rows and unique-index violations
// (SQLSTATE 23505, the authoritative uniqueness backstop) become package
// sentinels.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
