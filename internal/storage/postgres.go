package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"
)

// Open connects to Postgres with pool settings suited to a single client.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// Postgres implements ModelStore, AnnotationStore, and UserStore over a
// shared connection pool.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) GetModel(ctx context.Context, id string) (ModelRecord, error) {
	const q = `SELECT id, name, storage_path, owner_id, created_at FROM models WHERE id = $1`
	var m ModelRecord
	err := s.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Name, &m.StoragePath, &m.OwnerID, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelRecord{}, fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ModelRecord{}, fmt.Errorf("get model: %w", err)
	}
	return m, nil
}

func (s *Postgres) ListModels(ctx context.Context) ([]ModelRecord, error) {
	const q = `SELECT id, name, storage_path, owner_id, created_at FROM models ORDER BY created_at DESC`
	return s.queryModels(ctx, q)
}

func (s *Postgres) ListModelsByOwner(ctx context.Context, ownerID string) ([]ModelRecord, error) {
	const q = `SELECT id, name, storage_path, owner_id, created_at FROM models WHERE owner_id = $1 ORDER BY created_at DESC`
	return s.queryModels(ctx, q, ownerID)
}

func (s *Postgres) queryModels(ctx context.Context, query string, args ...any) ([]ModelRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var out []ModelRecord
	for rows.Next() {
		var m ModelRecord
		if err := rows.Scan(&m.ID, &m.Name, &m.StoragePath, &m.OwnerID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateModel(ctx context.Context, name, storagePath, ownerID string) (ModelRecord, error) {
	const q = `
		INSERT INTO models (name, storage_path, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, storage_path, owner_id, created_at
	`
	var m ModelRecord
	err := s.db.QueryRowContext(ctx, q, name, storagePath, ownerID).
		Scan(&m.ID, &m.Name, &m.StoragePath, &m.OwnerID, &m.CreatedAt)
	if err != nil {
		return ModelRecord{}, fmt.Errorf("insert model: %w", err)
	}
	return m, nil
}

func (s *Postgres) ListAnnotations(ctx context.Context, modelID string) ([]Annotation, error) {
	const q = `
		SELECT id, model_id, author_id, pos_x, pos_y, pos_z, body, created_at
		FROM annotations WHERE model_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, q, modelID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		var a Annotation
		if err := rows.Scan(&a.ID, &a.ModelID, &a.AuthorID,
			&a.Position.X, &a.Position.Y, &a.Position.Z, &a.Body, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateAnnotation(ctx context.Context, a Annotation) (Annotation, error) {
	const q = `
		INSERT INTO annotations (model_id, author_id, pos_x, pos_y, pos_z, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, q, a.ModelID, a.AuthorID,
		a.Position.X, a.Position.Y, a.Position.Z, a.Body).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return Annotation{}, fmt.Errorf("insert annotation: %w", err)
	}
	return a, nil
}

func (s *Postgres) DeleteAnnotation(ctx context.Context, id, authorID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM annotations WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Distinguish "not yours" from "gone".
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM annotations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check annotation: %w", err)
	}
	if exists {
		return fmt.Errorf("annotation %s: %w", id, ErrForbidden)
	}
	return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
}

func (s *Postgres) AuthenticateUser(ctx context.Context, email, password string) (User, error) {
	const q = `SELECT id, email, display_name, password_hash FROM users WHERE email = $1`
	var (
		u    User
		hash string
	)
	err := s.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Email, &u.DisplayName, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
