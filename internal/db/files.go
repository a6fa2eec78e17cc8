package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mini-drive/backend/internal/model"
)

const fileColumns = `id, owner_id, name, size_bytes, content_type, blob_ref, created_at, updated_at`

func scanFile(row pgx.Row) (*model.File, error) {
	var f model.File
	err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.Name,
		&f.SizeBytes,
		&f.ContentType,
		&f.BlobRef,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) CreateFile(ctx context.Context, f *model.File) (*model.File, error) {
	query := `
		INSERT INTO files (owner_id, name, size_bytes, content_type, blob_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + fileColumns
	return scanFile(s.Pool.QueryRow(ctx, query,
		f.OwnerID, f.Name, f.SizeBytes, f.ContentType, f.BlobRef))
}

func (s *Store) GetFileByID(ctx context.Context, fileID int64) (*model.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(s.Pool.QueryRow(ctx, query, fileID))
}

// ListFilesByOwner returns the owner's files ordered by creation time with
// an id tiebreak, so repeated listings paginate identically.
func (s *Store) ListFilesByOwner(ctx context.Context, ownerID int64) ([]model.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1 ORDER BY created_at, id`
	rows, err := s.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []model.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	if files == nil {
		files = []model.File{}
	}
	return files, rows.Err()
}

func (s *Store) RenameFile(ctx context.Context, fileID int64, name string) (*model.File, error) {
	query := `
		UPDATE files
		SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + fileColumns
	return scanFile(s.Pool.QueryRow(ctx, query, name, fileID))
}

func (s *Store) DeleteFile(ctx context.Context, fileID int64) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, fileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
