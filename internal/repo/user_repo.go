package repo

import (
	"context"
	"errors"
	"fmt"

	dom "github.com/ray-SDJ/comparison/internal/domain"
	"github.com/ray-SDJ/comparison/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepo provides user persistence.
type UserRepo interface {
	Create(ctx context.Context, u *dom.User) error
	List(ctx context.Context) ([]dom.User, error)
	GetByID(ctx context.Context, id int64) (dom.User, error)
	GetByEmail(ctx context.Context, email string) (dom.User, error)
	Update(ctx context.Context, u dom.User) error
	Delete(ctx context.Context, id int64) error
	EmailExists(ctx context.Context, email string) (bool, error)
	// InTx runs fn against a repo bound to one transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(UserRepo) error) error
}

// querier is the subset of pgxpool.Pool and pgx.Tx the repo needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	pool *pgxpool.Pool
	db   querier
	// inTx is set on the repo handed to InTx callbacks; reads by id then
	// lock the row until the transaction ends.
	inTx bool
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(pool *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{pool: pool, db: pool}
}

// Create validates u, inserts it and sets the generated id on u.
func (r *PGUserRepo) Create(ctx context.Context, u *dom.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	exists, err := r.EmailExists(ctx, u.Email)
	if err != nil {
		return err
	}
	if exists {
		return dom.ErrDuplicate
	}

	var id int64
	err = r.db.QueryRow(ctx,
		`INSERT INTO users (name, email, age) VALUES ($1, $2, $3) RETURNING id`,
		u.Name, u.Email, u.Age,
	).Scan(&id)
	if err != nil {
		return translate("create user", err)
	}
	u.ID = id
	return nil
}

// List returns every user. Callers must not rely on the order.
func (r *PGUserRepo) List(ctx context.Context) ([]dom.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, email, age FROM users ORDER BY id`)
	if err != nil {
		return nil, translate("list users", err)
	}
	defer rows.Close()

	list := []dom.User{}
	for rows.Next() {
		var u dom.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Age); err != nil {
			return nil, translate("scan user", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list users", err)
	}
	return list, nil
}

// GetByID returns the user by id or domain.ErrNotFound. Inside InTx the row
// stays locked until the transaction ends.
func (r *PGUserRepo) GetByID(ctx context.Context, id int64) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx, r.byIDQuery(), id).Scan(&u.ID, &u.Name, &u.Email, &u.Age)
	if err != nil {
		return dom.User{}, translate("get user", err)
	}
	return u, nil
}

// GetByEmail returns the user by email or domain.ErrNotFound.
func (r *PGUserRepo) GetByEmail(ctx context.Context, email string) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, age FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Age)
	if err != nil {
		return dom.User{}, translate("get user by email", err)
	}
	return u, nil
}

// Update overwrites name, email and age of the row with u.ID.
func (r *PGUserRepo) Update(ctx context.Context, u dom.User) error {
	if !u.HasID() {
		return dom.ErrNotFound
	}
	if err := u.Validate(); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, age = $4 WHERE id = $1`,
		u.ID, u.Name, u.Email, u.Age,
	)
	if err != nil {
		return translate("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrNotFound
	}
	return nil
}

// Delete removes the row with id. It returns domain.ErrNotFound when no row
// was removed.
func (r *PGUserRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrNotFound
	}
	return nil
}

func (r *PGUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, translate("check email", err)
	}
	return exists, nil
}

func (r *PGUserRepo) InTx(ctx context.Context, fn func(UserRepo) error) error {
	if r.inTx {
		return fn(r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&PGUserRepo{db: tx, inTx: true})
	})
}

func (r *PGUserRepo) byIDQuery() string {
	const q = `SELECT id, name, email, age FROM users WHERE id = $1`
	if r.inTx {
		return q + ` FOR UPDATE`
	}
	return q
}

// Ping reports whether the database answers.
func (r *PGUserRepo) Ping(ctx context.Context) error {
	if r.inTx {
		return nil
	}
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", dom.ErrStorageUnavailable, err)
	}
	return nil
}

// translate maps driver errors onto the domain error kinds.
func translate(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return dom.ErrNotFound
	case utils.IsPGUniqueViolation(err):
		return dom.ErrDuplicate
	case utils.IsPGCheckViolation(err):
		return fmt.Errorf("%w: %s", dom.ErrValidation, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
