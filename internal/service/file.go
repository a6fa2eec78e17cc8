package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mini-drive/backend/internal/db"
	"github.com/mini-drive/backend/internal/model"
	"github.com/mini-drive/backend/internal/storage"
)

const maxFileNameLength = 255

type FileStore interface {
	CreateFile(ctx context.Context, f *model.File) (*model.File, error)
	GetFileByID(ctx context.Context, fileID int64) (*model.File, error)
	ListFilesByOwner(ctx context.Context, ownerID int64) ([]model.File, error)
	RenameFile(ctx context.Context, fileID int64, name string) (*model.File, error)
	DeleteFile(ctx context.Context, fileID int64) error
}

type BlobStore interface {
	Save(ownerID int64, blobRef string, r io.Reader) (int64, error)
	Open(ownerID int64, blobRef string) (io.ReadSeekCloser, error)
	Remove(ownerID int64, blobRef string) error
	WriteZip(w io.Writer, entries []storage.ZipEntry) error
}

type FileService struct {
	files FileStore
	blobs BlobStore
	log   *zap.Logger
}

func NewFileService(files FileStore, blobs BlobStore, log *zap.Logger) *FileService {
	return &FileService{files: files, blobs: blobs, log: log}
}

// Upload stores content under a fresh server-generated blob reference, then
// inserts the metadata row. The blob is removed again if the insert loses a
// name-uniqueness race, so storage and metadata stay consistent.
func (s *FileService) Upload(ctx context.Context, principal *model.AuthUser, name, contentType string, r io.Reader) (*model.File, error) {
	if err := validateFileName(name); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	blobRef := uuid.NewString()
	size, err := s.blobs.Save(principal.ID, blobRef, r)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		s.discardBlob(principal.ID, blobRef)
		return nil, &ValidationError{Violations: []model.FieldViolation{
			violation("file", "must not be empty"),
		}}
	}

	created, err := s.files.CreateFile(ctx, &model.File{
		OwnerID:     principal.ID,
		Name:        name,
		SizeBytes:   size,
		ContentType: contentType,
		BlobRef:     blobRef,
	})
	if err != nil {
		s.discardBlob(principal.ID, blobRef)
		if db.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.log.Info("file uploaded",
		zap.Int64("file_id", created.ID),
		zap.Int64("owner_id", created.OwnerID),
		zap.Int64("size_bytes", created.SizeBytes),
	)
	return created, nil
}

func (s *FileService) Get(ctx context.Context, principal *model.AuthUser, fileID int64) (*model.File, error) {
	return s.authorize(ctx, principal, fileID)
}

// OpenContent returns metadata plus a reader over the blob. The caller owns
// closing the reader.
func (s *FileService) OpenContent(ctx context.Context, principal *model.AuthUser, fileID int64) (*model.File, io.ReadSeekCloser, error) {
	f, err := s.authorize(ctx, principal, fileID)
	if err != nil {
		return nil, nil, err
	}
	blob, err := s.blobs.Open(f.OwnerID, f.BlobRef)
	if err != nil {
		return nil, nil, err
	}
	return f, blob, nil
}

// List returns ownerID's files. Non-admins may only list their own.
func (s *FileService) List(ctx context.Context, principal *model.AuthUser, ownerID int64) ([]model.File, error) {
	if ownerID != principal.ID && !principal.HasRole(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	return s.files.ListFilesByOwner(ctx, ownerID)
}

func (s *FileService) Rename(ctx context.Context, principal *model.AuthUser, fileID int64, newName string) (*model.File, error) {
	if _, err := s.authorize(ctx, principal, fileID); err != nil {
		return nil, err
	}
	if err := validateFileName(newName); err != nil {
		return nil, err
	}

	renamed, err := s.files.RenameFile(ctx, fileID, newName)
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return nil, ErrNotFound
		case db.IsUniqueViolation(err):
			return nil, ErrConflict
		}
		return nil, err
	}
	return renamed, nil
}

// Delete removes the metadata row, then the blob. A failed blob removal is
// logged and not surfaced: the row is gone, so the file no longer exists as
// far as clients are concerned.
func (s *FileService) Delete(ctx context.Context, principal *model.AuthUser, fileID int64) error {
	f, err := s.authorize(ctx, principal, fileID)
	if err != nil {
		return err
	}
	if err := s.files.DeleteFile(ctx, fileID); err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	if err := s.blobs.Remove(f.OwnerID, f.BlobRef); err != nil {
		s.log.Warn("orphaned blob after delete",
			zap.Int64("file_id", f.ID),
			zap.String("blob_ref", f.BlobRef),
			zap.Error(err),
		)
	}
	return nil
}

// Archive streams a zip of all the principal's files to w.
func (s *FileService) Archive(ctx context.Context, principal *model.AuthUser, w io.Writer) error {
	files, err := s.files.ListFilesByOwner(ctx, principal.ID)
	if err != nil {
		return err
	}
	entries := make([]storage.ZipEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, storage.ZipEntry{
			Name:     f.Name,
			OwnerID:  f.OwnerID,
			BlobRef:  f.BlobRef,
			Modified: f.UpdatedAt,
		})
	}
	return s.blobs.WriteZip(w, entries)
}

func (s *FileService) authorize(ctx context.Context, principal *model.AuthUser, fileID int64) (*model.File, error) {
	f, err := s.files.GetFileByID(ctx, fileID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if f.OwnerID != principal.ID && !principal.HasRole(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	return f, nil
}

func (s *FileService) discardBlob(ownerID int64, blobRef string) {
	if err := s.blobs.Remove(ownerID, blobRef); err != nil {
		s.log.Warn("failed to discard blob",
			zap.String("blob_ref", blobRef),
			zap.Error(err),
		)
	}
}

func validateFileName(name string) error {
	var violations []model.FieldViolation
	switch {
	case name == "" || name == "." || name == "..":
		violations = append(violations, violation("name", "must be a non-empty file name"))
	case len(name) > maxFileNameLength:
		violations = append(violations, violation("name", "must be at most 255 characters"))
	}
	if strings.ContainsAny(name, "/\\\x00") {
		violations = append(violations, violation("name", "must not contain path separators"))
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
