// Package storage keeps file content on the local filesystem, one
// directory per owner. Blob names are server-generated references, never
// client-supplied filenames, so stored paths cannot be steered by input.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrBlobNotFound = errors.New("blob not found")

type Disk struct {
	root string
}

// NewDisk verifies the storage root (creating it when absent). A root that
// exists but is not a directory is a startup failure.
func NewDisk(root string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage root %q: %w", root, err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(abs, 0o750); err != nil {
			return nil, fmt.Errorf("create storage root %q: %w", abs, err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat storage root %q: %w", abs, err)
	case !info.IsDir():
		return nil, fmt.Errorf("storage root %q exists and is not a directory", abs)
	}

	return &Disk{root: abs}, nil
}

func (d *Disk) Root() string { return d.root }

// Save streams r into the owner's directory under blobRef. A partial write
// is removed before the error is returned.
func (d *Disk) Save(ownerID int64, blobRef string, r io.Reader) (int64, error) {
	path, err := d.blobPath(ownerID, blobRef)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return 0, fmt.Errorf("create owner directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, fmt.Errorf("create blob: %w", err)
	}

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("write blob: %w", err)
	}
	return written, nil
}

func (d *Disk) Open(ownerID int64, blobRef string) (io.ReadSeekCloser, error) {
	path, err := d.blobPath(ownerID, blobRef)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	return f, err
}

func (d *Disk) Remove(ownerID int64, blobRef string) error {
	path, err := d.blobPath(ownerID, blobRef)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrBlobNotFound
	}
	return err
}

func (d *Disk) blobPath(ownerID int64, blobRef string) (string, error) {
	if blobRef == "" || strings.ContainsAny(blobRef, `/\`) || strings.Contains(blobRef, "..") {
		return "", fmt.Errorf("invalid blob reference %q", blobRef)
	}
	return filepath.Join(d.root, strconv.FormatInt(ownerID, 10), blobRef), nil
}
