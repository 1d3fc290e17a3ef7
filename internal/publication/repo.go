package publication

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("publication not found")

// Repository owns the publications table. The feed query takes the
// followed-author set computed upstream; this package never reads the
// follow edges itself.
type Repository interface {
	Insert(ctx context.Context, p *Publication) (*Publication, error)
	FindByID(ctx context.Context, id string) (*Publication, error)
	Delete(ctx context.Context, id string) error
	ByUser(ctx context.Context, userID string, page, limit int) ([]Publication, int64, error)
	Feed(ctx context.Context, authorIDs []string, page, limit int) ([]Publication, int64, error)
	SetFile(ctx context.Context, id, key string) (*Publication, error)
}

const pubColumns = `id::text, user_id::text, text, file, created_at`

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, p *Publication) (*Publication, error) {
	row := r.Pool.QueryRow(ctx,
		`INSERT INTO publications (user_id, text, file)
		 VALUES ($1::uuid, $2, $3)
		 RETURNING `+pubColumns,
		p.UserID, p.Text, p.File,
	)
	return scanPublication(row)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Publication, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+pubColumns+` FROM publications WHERE id = $1::uuid`,
		id,
	)
	return scanPublication(row)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM publications WHERE id = $1::uuid`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ByUser(ctx context.Context, userID string, page, limit int) ([]Publication, int64, error) {
	var total int64
	err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM publications WHERE user_id = $1::uuid`,
		userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT `+pubColumns+`
		 FROM publications
		 WHERE user_id = $1::uuid
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}
	return collect(rows, total)
}

func (r *PostgresRepository) Feed(ctx context.Context, authorIDs []string, page, limit int) ([]Publication, int64, error) {
	if len(authorIDs) == 0 {
		return nil, 0, nil
	}

	var total int64
	err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM publications WHERE user_id = ANY($1::uuid[])`,
		authorIDs,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT `+pubColumns+`
		 FROM publications
		 WHERE user_id = ANY($1::uuid[])
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		authorIDs, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}
	return collect(rows, total)
}

func (r *PostgresRepository) SetFile(ctx context.Context, id, key string) (*Publication, error) {
	row := r.Pool.QueryRow(ctx,
		`UPDATE publications SET file = $2 WHERE id = $1::uuid RETURNING `+pubColumns,
		id, key,
	)
	return scanPublication(row)
}

func scanPublication(row pgx.Row) (*Publication, error) {
	var p Publication
	err := row.Scan(&p.ID, &p.UserID, &p.Text, &p.File, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collect(rows pgx.Rows, total int64) ([]Publication, int64, error) {
	defer rows.Close()

	var pubs []Publication
	for rows.Next() {
		var p Publication
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.File, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		pubs = append(pubs, p)
	}
	return pubs, total, rows.Err()
}
