package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"time"
)

type ZipEntry struct {
	Name     string
	OwnerID  int64
	BlobRef  string
	Modified time.Time
}

// WriteZip streams a zip archive of the given blobs to w. Entry names are
// the user-visible filenames; duplicates are impossible because names are
// unique per owner.
func (d *Disk) WriteZip(w io.Writer, entries []ZipEntry) error {
	zw := zip.NewWriter(w)
	for _, entry := range entries {
		blob, err := d.Open(entry.OwnerID, entry.BlobRef)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("archive %s: %w", entry.Name, err)
		}

		header := &zip.FileHeader{
			Name:     entry.Name,
			Method:   zip.Deflate,
			Modified: entry.Modified,
		}
		out, err := zw.CreateHeader(header)
		if err == nil {
			_, err = io.Copy(out, blob)
		}
		_ = blob.Close()
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("archive %s: %w", entry.Name, err)
		}
	}
	return zw.Close()
}
