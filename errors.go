package mixer

import "fmt"

var (
	// ErrPhotoNotFound is returned for a point lookup of an unknown photo ID.
	ErrPhotoNotFound = fmt.Errorf("photo not found")

	// ErrNoFileSelected is returned when an upload is requested without a file.
	ErrNoFileSelected = fmt.Errorf("no file selected")

	// ErrMissingCrop is returned when an attending upload is requested before
	// a crop has been committed. No storage call is made in this case.
	ErrMissingCrop = fmt.Errorf("please crop the image before generating")

	// ErrInvalidPhotoType is returned for a type tag outside live/attending.
	ErrInvalidPhotoType = fmt.Errorf("invalid photo type")

	// ErrUnsupportedImageType is returned when an uploaded file cannot be
	// decoded as an image.
	ErrUnsupportedImageType = fmt.Errorf("unsupported image type")
)
