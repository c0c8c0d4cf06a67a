// Package pgrepo implements the user directory over PostgreSQL.
package pgrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/carelink/care-auth-server/principals"
)

var _ principals.Directory = (*Directory)(nil)

// NewDB creates a PostgreSQL connection pool.
func NewDB(url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Wrap(err, "[pgrepo NewDB] parse config")
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "[pgrepo NewDB] create pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "[pgrepo NewDB] ping db")
	}

	return pool, nil
}

type Directory struct {
	db *pgxpool.Pool
}

func NewDirectory(db *pgxpool.Pool) *Directory {
	return &Directory{db: db}
}

func (d *Directory) Create(ctx context.Context, record *principals.Record) (*principals.Record, error) {
	row := d.db.QueryRow(ctx,
		`INSERT INTO users (username, name, role, tenant_id, credential_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		record.Username, record.Name, record.Role, record.TenantID, record.CredentialHash,
	)

	stored := *record
	if err := row.Scan(&stored.ID, &stored.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, principals.ErrUsernameTaken
		}
		return nil, errors.Wrap(err, "[Directory.Create] insert user")
	}
	return &stored, nil
}

func (d *Directory) GetByUsername(ctx context.Context, username string) (*principals.Record, error) {
	row := d.db.QueryRow(ctx,
		`SELECT id, username, name, role, tenant_id, credential_hash, created_at
		 FROM users
		 WHERE username = $1`,
		username)
	return scanRecord(row)
}

func (d *Directory) GetByID(ctx context.Context, id int64) (*principals.Record, error) {
	row := d.db.QueryRow(ctx,
		`SELECT id, username, name, role, tenant_id, credential_hash, created_at
		 FROM users
		 WHERE id = $1`,
		id)
	return scanRecord(row)
}

func (d *Directory) ReplaceCredential(ctx context.Context, id int64, newHash string) error {
	tag, err := d.db.Exec(ctx,
		`UPDATE users SET credential_hash = $2 WHERE id = $1`,
		id, newHash)
	if err != nil {
		return errors.Wrap(err, "[Directory.ReplaceCredential] update user")
	}
	if tag.RowsAffected() == 0 {
		return principals.ErrNotFound
	}
	return nil
}

func (d *Directory) List(ctx context.Context, offset, limit int) ([]*principals.Record, error) {
	rows, err := d.db.Query(ctx,
		`SELECT id, username, name, role, tenant_id, credential_hash, created_at
		 FROM users
		 ORDER BY id
		 OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[Directory.List] query users")
	}
	defer rows.Close()

	records := make([]*principals.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*principals.Record, error) {
	var r principals.Record
	err := row.Scan(&r.ID, &r.Username, &r.Name, &r.Role, &r.TenantID, &r.CredentialHash, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, principals.ErrNotFound
		}
		return nil, errors.Wrap(err, "[pgrepo scanRecord] scan user")
	}
	return &r, nil
}

// isUniqueViolation detects a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	type pgError interface{ SQLState() string }
	var pgErr pgError
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
