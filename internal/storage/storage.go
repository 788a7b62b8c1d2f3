package storage

import (
	"context"
	"fmt"
	"strings"
)

// ImageStore keeps one profile image per user, keyed by user id.
type ImageStore interface {
	// PutProfileImage stores data for userID, replacing any previous image.
	PutProfileImage(ctx context.Context, userID int64, data []byte) error
	// GetProfileImage returns the image for userID. A missing image is
	// reported as ok == false with a nil error.
	GetProfileImage(ctx context.Context, userID int64) (data []byte, ok bool, err error)
}

func imageName(userID int64) string {
	return fmt.Sprintf("%d.jpg", userID)
}

func imageKey(prefix string, userID int64) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return imageName(userID)
	}
	return prefix + "/" + imageName(userID)
}
