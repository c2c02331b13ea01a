package mixer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/gef-festival/photo-mixer/blobstore"
	"github.com/gef-festival/photo-mixer/compositor"
	"github.com/gef-festival/photo-mixer/log"
)

// ProgressFunc receives caller-facing progress for one upload.
type ProgressFunc func(UploadProgress)

// UploadLedger records blob writes so orphans stay observable. The
// ledger is bookkeeping only; it never blocks or fails an upload.
type UploadLedger interface {
	RecordUpload(ctx context.Context, key, url, photoType string) error
	MarkLinked(ctx context.Context, key, photoID string) error
}

// UploadEngine orchestrates the upload pipeline: validate, composite,
// write the blob, then write the photo document. The blob and document
// writes are not transactional; a document failure after a successful
// blob write leaves the blob behind and only its ledger row unlinked.
type UploadEngine struct {
	compositor *compositor.Compositor
	blobs      blobstore.Store
	photos     PhotoStore
	ledger     UploadLedger
}

func NewUploadEngine(c *compositor.Compositor, blobs blobstore.Store, photos PhotoStore, ledger UploadLedger) *UploadEngine {
	return &UploadEngine{
		compositor: c,
		blobs:      blobs,
		photos:     photos,
		ledger:     ledger,
	}
}

// LiveUploadRequest is one photo for the live feed.
type LiveUploadRequest struct {
	UploadID  string
	Filename  string
	Body      []byte
	WithFrame bool
	Progress  ProgressFunc
}

// AttendingUploadRequest is one photo for the attending flow. Crop must
// be committed before the upload is attempted.
type AttendingUploadRequest struct {
	UploadID      string
	Filename      string
	Body          []byte
	Crop          *compositor.CropRegion
	DisplayWidth  float64
	DisplayHeight float64
	Progress      ProgressFunc
}

// UploadLive composites (optionally) and stores a live photo.
func (e *UploadEngine) UploadLive(ctx context.Context, req LiveUploadRequest) (UploadResult, error) {
	if len(req.Body) == 0 {
		return UploadResult{}, ErrNoFileSelected
	}

	src, err := compositor.Decode(bytes.NewReader(req.Body))
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrUnsupportedImageType, err)
	}

	encoded, err := compositor.EncodeJPEG(e.compositor.ComposeLive(src, req.WithFrame))
	if err != nil {
		return UploadResult{}, err
	}

	key := LiveUploadKey(req.Filename, time.Now())

	return e.store(ctx, req.UploadID, key, PhotoTypeLive, encoded, req.Progress)
}

// UploadAttending crops, composites with the attending frame and stores
// the result. A missing crop fails validation before any network call.
func (e *UploadEngine) UploadAttending(ctx context.Context, req AttendingUploadRequest) (UploadResult, error) {
	if len(req.Body) == 0 {
		return UploadResult{}, ErrNoFileSelected
	}
	if req.Crop == nil {
		return UploadResult{}, ErrMissingCrop
	}

	src, err := compositor.Decode(bytes.NewReader(req.Body))
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrUnsupportedImageType, err)
	}

	canvas, err := e.compositor.ComposeAttending(src, *req.Crop, req.DisplayWidth, req.DisplayHeight)
	if err != nil {
		return UploadResult{}, err
	}

	encoded, err := compositor.EncodePNG(canvas)
	if err != nil {
		return UploadResult{}, err
	}

	key := AttendingUploadKey(time.Now())

	return e.store(ctx, req.UploadID, key, PhotoTypeAttending, encoded, req.Progress)
}

// store runs steps 4-7 of the pipeline: blob write, public URL, photo
// document, ledger linkage.
func (e *UploadEngine) store(ctx context.Context, uploadID, key, photoType string, body []byte, progress ProgressFunc) (UploadResult, error) {
	contentType := mimetype.Detect(body).String()

	url, err := e.blobs.Upload(ctx, key, contentType, body, progressReporter(uploadID, progress))
	if err != nil {
		return UploadResult{}, err
	}

	if e.ledger != nil {
		if err := e.ledger.RecordUpload(ctx, key, url, photoType); err != nil {
			log.Warn("fail to record blob write in upload ledger", zap.Error(err), zap.String("key", key), log.SourceLedger)
		}
	}

	photoID, err := e.photos.AddPhoto(ctx, PhotoRecord{
		URL:       url,
		CreatedAt: time.Now(),
		Type:      photoType,
	})
	if err != nil {
		// The blob stays behind with no photo document. Its ledger row
		// remains unlinked so the orphan can be found later.
		log.Error("fail to add photo record after blob write", zap.Error(err), zap.String("key", key), log.SourceStore)
		return UploadResult{}, err
	}

	if e.ledger != nil {
		if err := e.ledger.MarkLinked(ctx, key, photoID); err != nil {
			log.Warn("fail to link upload ledger row", zap.Error(err), zap.String("key", key), log.SourceLedger)
		}
	}

	return UploadResult{
		PhotoID: photoID,
		URL:     url,
		Type:    photoType,
	}, nil
}

// progressReporter converts byte counts to the caller-facing percent
// report. Reported percents never decrease and finish at 100.
func progressReporter(uploadID string, progress ProgressFunc) blobstore.ProgressFunc {
	if progress == nil {
		return nil
	}

	var last float64
	return func(transferred, total int64) {
		percent := 100.0
		if total > 0 {
			percent = float64(transferred) / float64(total) * 100
		}
		if percent < last {
			return
		}
		last = percent

		progress(UploadProgress{
			UploadID:         uploadID,
			BytesTransferred: transferred,
			TotalBytes:       total,
			Percent:          percent,
		})
	}
}
