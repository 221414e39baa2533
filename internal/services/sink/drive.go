package sink

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/drive/v3"
)

// DriveBlobStore uploads screenshots into a Drive folder
type DriveBlobStore struct {
	service  *drive.Service
	folderID string
}

// NewDriveBlobStore creates a store writing into folderID
func NewDriveBlobStore(service *drive.Service, folderID string) *DriveBlobStore {
	return &DriveBlobStore{service: service, folderID: folderID}
}

// Upload creates the file and returns a direct-view link usable by =IMAGE()
func (d *DriveBlobStore) Upload(ctx context.Context, localPath string, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	meta := &drive.File{Name: name}
	if d.folderID != "" {
		meta.Parents = []string{d.folderID}
	}

	created, err := d.service.Files.Create(meta).
		Media(f).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload failed: %w", err)
	}
	return DriveViewURL(created.Id), nil
}

// DriveViewURL is the direct-view link of a Drive file
func DriveViewURL(fileID string) string {
	return "https://drive.google.com/uc?id=" + fileID
}
