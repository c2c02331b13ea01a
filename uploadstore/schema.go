package uploadstore

import "time"

// UploadRecord is one row per successful object-storage write. Linked is
// set once the photo document referencing the blob has been written;
// rows that never get linked are the orphaned blobs left behind by a
// document-store failure after a storage success.
type UploadRecord struct {
	Key     string `json:"key" gorm:"index:upload_key,unique"`
	URL     string `json:"url"`
	Type    string `json:"type"`
	PhotoID string `json:"photoID"`
	Linked  bool   `json:"linked"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r UploadRecord) TableName() string {
	return "upload_records"
}
