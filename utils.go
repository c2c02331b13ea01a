package mixer

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LiveUploadKey builds the collision-resistant object key for a live
// upload. Keys are timestamp-prefixed and derived from the original
// filename, re-extensioned to the JPEG output of the compositor.
func LiveUploadKey(filename string, now time.Time) string {
	name := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if name == "" || name == "." || name == "/" {
		name = uuid.NewString()
	}

	return fmt.Sprintf("%s/%d-%s.jpeg", StoragePrefix[PhotoTypeLive], now.UnixMilli(), name)
}

// AttendingUploadKey builds the object key for a composited attending
// photo. The frame pipeline always emits PNG.
func AttendingUploadKey(now time.Time) string {
	return fmt.Sprintf("%s/attending-%d.png", StoragePrefix[PhotoTypeAttending], now.UnixMilli())
}

// DownloadFilename is the filename hint attached to photo downloads.
func DownloadFilename(photoID string) string {
	if photoID == "" {
		photoID = "photo"
	}
	return fmt.Sprintf("gef-selfie-%s.jpg", photoID)
}
