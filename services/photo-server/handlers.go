package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	mixer "github.com/gef-festival/photo-mixer"
	"github.com/gef-festival/photo-mixer/compositor"
	"github.com/gef-festival/photo-mixer/traceutils"
)

const uploadFailedMessage = "Upload failed. Please try again."

// readUploadFile pulls the multipart photo out of the request. A request
// without a file is a recoverable validation failure, not an error.
func readUploadFile(c *gin.Context) (string, []byte, error) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return "", nil, mixer.ErrNoFileSelected
	}

	f, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}

	return fileHeader.Filename, body, nil
}

// UploadLivePhoto handles the live-feed upload flow. Progress events
// are pushed over the feed socket keyed by the returned upload ID.
func (s *PhotoMixerServer) UploadLivePhoto(c *gin.Context) {
	traceutils.SetHandlerTag(c, "UploadLivePhoto")

	filename, body, err := readUploadFile(c)
	if err != nil {
		if errors.Is(err, mixer.ErrNoFileSelected) {
			abortWithError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		abortWithError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}

	withFrame := true
	if v := c.PostForm("frame"); v != "" {
		withFrame, _ = strconv.ParseBool(v)
	}

	uploadID := uuid.NewString()
	result, err := s.engine.UploadLive(c, mixer.LiveUploadRequest{
		UploadID:  uploadID,
		Filename:  filename,
		Body:      body,
		WithFrame: withFrame,
		Progress: func(p mixer.UploadProgress) {
			s.hub.BroadcastProgress(mixer.PhotoTypeLive, p)
		},
	})
	if err != nil {
		if errors.Is(err, mixer.ErrUnsupportedImageType) {
			abortWithError(c, http.StatusBadRequest, "unsupported image type", err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, uploadFailedMessage, err)
		return
	}

	s.hub.BroadcastComplete(mixer.PhotoTypeLive, result)

	c.JSON(http.StatusCreated, gin.H{
		"uploadID": uploadID,
		"photoID":  result.PhotoID,
		"url":      result.URL,
	})
}

type attendingUploadForm struct {
	compositor.CropRegion
	DisplayWidth  float64 `form:"display_width"`
	DisplayHeight float64 `form:"display_height"`
}

// UploadAttendingPhoto handles the framed "I will be seen" flow. The
// crop must be committed client-side; without it the request fails
// validation before any storage traffic.
func (s *PhotoMixerServer) UploadAttendingPhoto(c *gin.Context) {
	traceutils.SetHandlerTag(c, "UploadAttendingPhoto")

	filename, body, err := readUploadFile(c)
	if err != nil {
		if errors.Is(err, mixer.ErrNoFileSelected) {
			abortWithError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		abortWithError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}

	var form attendingUploadForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid parameters", err)
		return
	}

	var crop *compositor.CropRegion
	if form.Width > 0 && form.Height > 0 {
		crop = &form.CropRegion
	}

	uploadID := uuid.NewString()
	result, err := s.engine.UploadAttending(c, mixer.AttendingUploadRequest{
		UploadID:      uploadID,
		Filename:      filename,
		Body:          body,
		Crop:          crop,
		DisplayWidth:  form.DisplayWidth,
		DisplayHeight: form.DisplayHeight,
		Progress: func(p mixer.UploadProgress) {
			s.hub.BroadcastProgress(mixer.PhotoTypeAttending, p)
		},
	})
	if err != nil {
		if errors.Is(err, mixer.ErrMissingCrop) {
			abortWithError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		if errors.Is(err, mixer.ErrUnsupportedImageType) {
			abortWithError(c, http.StatusBadRequest, "unsupported image type", err)
			return
		}
		if errors.Is(err, compositor.ErrFrameMissing) {
			abortWithError(c, http.StatusInternalServerError, "the attending frame template is missing", err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, uploadFailedMessage, err)
		return
	}

	s.hub.BroadcastComplete(mixer.PhotoTypeAttending, result)

	c.JSON(http.StatusCreated, gin.H{
		"uploadID": uploadID,
		"photoID":  result.PhotoID,
		"url":      result.URL,
		"shareURL": s.sharePageURL(result.PhotoID),
	})
}

// ListPhotos returns one feed ordered by createdAt descending.
func (s *PhotoMixerServer) ListPhotos(c *gin.Context) {
	var params struct {
		Type  string `form:"type" binding:"required"`
		Limit int64  `form:"limit"`
	}

	if err := c.BindQuery(&params); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid parameters", err)
		return
	}

	if params.Type != mixer.PhotoTypeLive && params.Type != mixer.PhotoTypeAttending {
		abortWithError(c, http.StatusBadRequest, "invalid photo type", mixer.ErrInvalidPhotoType)
		return
	}

	photos, err := s.photoStore.ListPhotos(c, mixer.PhotoFilter{Type: params.Type, Limit: params.Limit})
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "fail to query photos", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

// GetPhoto is the point lookup backing the share page.
func (s *PhotoMixerServer) GetPhoto(c *gin.Context) {
	photoID := c.Param("photo_id")
	traceutils.SetPhotoTag(c, photoID)

	photo, err := s.photoStore.GetPhoto(c, photoID)
	if err != nil {
		if errors.Is(err, mixer.ErrPhotoNotFound) {
			abortWithError(c, http.StatusNotFound, "Photo not found.", err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load photo.", err)
		return
	}

	c.JSON(http.StatusOK, photo)
}

// FeedSocket attaches a WebSocket client to one live feed. The client
// receives the current snapshot on connect and a full replacement on
// every change until it disconnects.
func (s *PhotoMixerServer) FeedSocket(c *gin.Context) {
	feedType := c.Param("type")
	if feedType != mixer.PhotoTypeLive && feedType != mixer.PhotoTypeAttending {
		abortWithError(c, http.StatusBadRequest, "invalid photo type", mixer.ErrInvalidPhotoType)
		return
	}

	if err := s.hub.Serve(c.Writer, c.Request, feedType); err != nil {
		// the upgrader has already written its own error response
		log.WithError(err).Error("fail to open feed socket")
		traceutils.CaptureException(c, err)
		c.Abort()
		return
	}
}

// CarouselWindow returns the visible slots around the rotating index,
// annotated with their prefetch state.
func (s *PhotoMixerServer) CarouselWindow(c *gin.Context) {
	window := s.carousel.Window(2)

	type slot struct {
		Offset int               `json:"offset"`
		Photo  mixer.PhotoRecord `json:"photo"`
		Loaded bool              `json:"loaded"`
	}

	slots := make([]slot, 0, len(window))
	for _, item := range window {
		slots = append(slots, slot{
			Offset: item.Offset,
			Photo:  item.Photo,
			Loaded: s.prefetcher.Loaded(item.Photo.URL),
		})
	}

	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// ListOrphanUploads reports blob writes that never got a photo
// document. The blobs are left in place; this only surfaces them.
func (s *PhotoMixerServer) ListOrphanUploads(c *gin.Context) {
	orphans, err := s.uploadStore.ListOrphans(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "fail to query upload ledger", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orphans": orphans})
}
