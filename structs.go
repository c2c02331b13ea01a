package mixer

import (
	"time"
)

// PhotoType partitions photos into the two independent flows.
const (
	PhotoTypeLive      = "live"
	PhotoTypeAttending = "attending"
)

// StoragePrefix maps a photo type to its object-storage key prefix.
var StoragePrefix = map[string]string{
	PhotoTypeLive:      "images",
	PhotoTypeAttending: "attending_photos",
}

// PhotoRecord is the persisted metadata entry describing one uploaded
// photo. Records are immutable after creation and are never deleted by
// this application.
type PhotoRecord struct {
	ID        string    `json:"id" bson:"-"`
	URL       string    `json:"url" bson:"url"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	Type      string    `json:"type" bson:"type"`
}

// PhotoFilter narrows listing and subscription queries. Type is an
// equality match; Limit of 0 means no limit. Results are always ordered
// by createdAt descending.
type PhotoFilter struct {
	Type  string
	Limit int64
}

// UploadResult is reported to a caller after a completed upload.
type UploadResult struct {
	PhotoID string `json:"photoID"`
	URL     string `json:"url"`
	Type    string `json:"type"`
}

// UploadProgress is a single progress report for one in-flight upload.
// Percent values for one upload are non-decreasing and reach 100 before
// the upload completes.
type UploadProgress struct {
	UploadID         string  `json:"uploadID"`
	BytesTransferred int64   `json:"bytesTransferred"`
	TotalBytes       int64   `json:"totalBytes"`
	Percent          float64 `json:"percent"`
}
