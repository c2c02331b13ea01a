package main

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	mixer "github.com/gef-festival/photo-mixer"
	"github.com/gef-festival/photo-mixer/share"
	"github.com/gef-festival/photo-mixer/traceutils"
)

func (s *PhotoMixerServer) sharePageURL(photoID string) string {
	return fmt.Sprintf("%s/attending/share/%s", s.siteURL, photoID)
}

func (s *PhotoMixerServer) shareMessageFor(photoID string) share.Message {
	m := s.shareMessage
	m.PageURL = s.sharePageURL(photoID)
	return m
}

// DownloadPhoto walks the download fallback ladder for a stored photo.
// A materialized payload is streamed as an attachment; otherwise the
// client gets the action the winning strategy decided on.
func (s *PhotoMixerServer) DownloadPhoto(c *gin.Context) {
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

	result, err := s.resolver.Resolve(c, photo.URL, mixer.DownloadFilename(photoID))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "fail to resolve download", err)
		return
	}

	if result.Payload != nil {
		contentType := result.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, result.Filename))
		c.Data(http.StatusOK, contentType, result.Payload)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SharePhotoLinks returns the per-platform share URLs plus the message
// body a native share sheet should carry.
func (s *PhotoMixerServer) SharePhotoLinks(c *gin.Context) {
	photoID := c.Param("photo_id")

	if _, err := s.photoStore.GetPhoto(c, photoID); err != nil {
		if errors.Is(err, mixer.ErrPhotoNotFound) {
			abortWithError(c, http.StatusNotFound, "Photo not found.", err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load photo.", err)
		return
	}

	m := s.shareMessageFor(photoID)

	c.JSON(http.StatusOK, gin.H{
		"message":  m,
		"links":    share.Links(m),
		"filename": mixer.DownloadFilename(photoID),
	})
}

var sharePageTemplate = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>{{.Title}}</title>
  <meta name="description" content="{{.Description}}">
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:description" content="{{.Description}}">
  <meta property="og:image" content="{{.ImageURL}}">
  <meta property="og:url" content="{{.PageURL}}">
  <meta name="twitter:card" content="summary_large_image">
  <meta name="twitter:title" content="{{.Title}}">
  <meta name="twitter:description" content="{{.Description}}">
  <meta name="twitter:image" content="{{.ImageURL}}">
</head>
<body>
  <img src="{{.ImageURL}}" alt="{{.Title}}">
</body>
</html>
`))

// AttendingSharePage renders the per-photo public page with the social
// meta tags link previews scrape.
func (s *PhotoMixerServer) AttendingSharePage(c *gin.Context) {
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

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := sharePageTemplate.Execute(c.Writer, gin.H{
		"Title":       s.shareMessage.Title,
		"Description": s.shareMessage.Text,
		"ImageURL":    photo.URL,
		"PageURL":     s.sharePageURL(photoID),
	}); err != nil {
		abortWithError(c, http.StatusInternalServerError, "fail to render share page", err)
	}
}
