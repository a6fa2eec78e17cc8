package model

import "time"

// File is the metadata row for one stored object. Content lives on disk
// under the owner's directory, keyed by BlobRef.
type File struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"ownerId"`
	Name        string    `json:"name"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentType string    `json:"contentType"`
	BlobRef     string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type RenameFileRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

type FileListResponse struct {
	Files []File `json:"files"`
}
