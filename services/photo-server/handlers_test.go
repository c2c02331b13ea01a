package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mixer "github.com/gef-festival/photo-mixer"
	"github.com/gef-festival/photo-mixer/blobstore"
	"github.com/gef-festival/photo-mixer/compositor"
	"github.com/gef-festival/photo-mixer/feed"
	"github.com/gef-festival/photo-mixer/log"
	"github.com/gef-festival/photo-mixer/share"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := log.Initialize("debug", true); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubPhotoStore struct {
	photos map[string]mixer.PhotoRecord
}

func (s *stubPhotoStore) AddPhoto(_ context.Context, photo mixer.PhotoRecord) (string, error) {
	return "photo-1", nil
}

func (s *stubPhotoStore) GetPhoto(_ context.Context, id string) (mixer.PhotoRecord, error) {
	photo, ok := s.photos[id]
	if !ok {
		return mixer.PhotoRecord{}, mixer.ErrPhotoNotFound
	}
	return photo, nil
}

func (s *stubPhotoStore) ListPhotos(_ context.Context, filter mixer.PhotoFilter) ([]mixer.PhotoRecord, error) {
	photos := []mixer.PhotoRecord{}
	for _, photo := range s.photos {
		if filter.Type == "" || photo.Type == filter.Type {
			photos = append(photos, photo)
		}
	}
	return photos, nil
}

func (s *stubPhotoStore) Subscribe(context.Context, mixer.PhotoFilter) (*mixer.Subscription, error) {
	return nil, mixer.ErrPhotoNotFound
}

type stubBlobStore struct{}

func (stubBlobStore) Upload(_ context.Context, key, _ string, _ []byte, progress blobstore.ProgressFunc) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (stubBlobStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func newTestServer(photos *stubPhotoStore) *PhotoMixerServer {
	engine := mixer.NewUploadEngine(compositor.New("", ""), stubBlobStore{}, photos, nil)
	carousel := feed.NewCarousel(3 * time.Second)

	s := NewPhotoMixerServer(
		engine,
		photos,
		nil,
		feed.NewHub(),
		carousel,
		feed.NewPrefetcher(nil, nil),
		share.NewResolver(&share.DirectLink{}, &share.ManualInstruction{}),
		"https://photos.gef.example.com",
		share.Message{Title: "GEF", Text: "I will be seen at GEF!"},
		"secret",
	)
	s.SetupRoute()

	return s
}

func doRequest(s *PhotoMixerServer, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.route.ServeHTTP(w, req)
	return w
}

func TestGetPhoto(t *testing.T) {
	store := &stubPhotoStore{photos: map[string]mixer.PhotoRecord{
		"p1": {ID: "p1", URL: "https://cdn.example.com/images/1.jpeg", Type: mixer.PhotoTypeLive},
	}}
	s := newTestServer(store)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/photos/p1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var photo mixer.PhotoRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &photo))
	assert.Equal(t, "p1", photo.ID)
}

func TestGetPhotoNotFound(t *testing.T) {
	s := newTestServer(&stubPhotoStore{})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/photos/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Photo not found.")
}

func TestListPhotosRequiresType(t *testing.T) {
	s := newTestServer(&stubPhotoStore{})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/photos", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, httptest.NewRequest(http.MethodGet, "/photos?type=selfie", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, httptest.NewRequest(http.MethodGet, "/photos?type=live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadLivePhotoWithoutFile(t *testing.T) {
	s := newTestServer(&stubPhotoStore{})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/photos", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())

	w := doRequest(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no file selected")
}

func TestUploadAttendingPhotoWithoutCrop(t *testing.T) {
	s := newTestServer(&stubPhotoStore{})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	file, err := form.CreateFormFile("photo", "selfie.png")
	require.NoError(t, err)
	_, err = file.Write([]byte("not-an-image"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/attending/photos", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())

	w := doRequest(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "please crop the image before generating")
}

func TestDownloadPhotoRedirectResult(t *testing.T) {
	store := &stubPhotoStore{photos: map[string]mixer.PhotoRecord{
		"p1": {ID: "p1", URL: "https://cdn.example.com/images/1.jpeg", Type: mixer.PhotoTypeLive},
	}}
	s := newTestServer(store)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/photos/p1/download", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var result share.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "direct-link", result.Strategy)
	assert.Equal(t, "https://cdn.example.com/images/1.jpeg", result.RedirectURL)
	assert.Equal(t, "gef-selfie-p1.jpg", result.Filename)
}

func TestSharePhotoLinks(t *testing.T) {
	store := &stubPhotoStore{photos: map[string]mixer.PhotoRecord{
		"p1": {ID: "p1", URL: "https://cdn.example.com/attending_photos/1.png", Type: mixer.PhotoTypeAttending},
	}}
	s := newTestServer(store)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/photos/p1/share-links", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message  share.Message       `json:"message"`
		Links    share.PlatformLinks `json:"links"`
		Filename string              `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "https://photos.gef.example.com/attending/share/p1", resp.Message.PageURL)
	assert.True(t, strings.HasPrefix(resp.Links.Twitter, "https://twitter.com/intent/tweet?text="))
	assert.Equal(t, "gef-selfie-p1.jpg", resp.Filename)
}

func TestAttendingSharePage(t *testing.T) {
	store := &stubPhotoStore{photos: map[string]mixer.PhotoRecord{
		"p1": {ID: "p1", URL: "https://cdn.example.com/attending_photos/1.png", Type: mixer.PhotoTypeAttending},
	}}
	s := newTestServer(store)

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/attending/share/p1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, `property="og:image" content="https://cdn.example.com/attending_photos/1.png"`)
	assert.Contains(t, body, `property="og:url" content="https://photos.gef.example.com/attending/share/p1"`)
	assert.Contains(t, body, `name="twitter:card" content="summary_large_image"`)
}

func TestCarouselWindowEndpoint(t *testing.T) {
	s := newTestServer(&stubPhotoStore{})
	s.carousel.SetPhotos([]mixer.PhotoRecord{
		{ID: "a", URL: "https://cdn.example.com/attending_photos/a.png"},
		{ID: "b", URL: "https://cdn.example.com/attending_photos/b.png"},
		{ID: "c", URL: "https://cdn.example.com/attending_photos/c.png"},
	})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/carousel", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Slots []struct {
			Offset int               `json:"offset"`
			Photo  mixer.PhotoRecord `json:"photo"`
			Loaded bool              `json:"loaded"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Slots, 5)
	assert.Equal(t, -2, resp.Slots[0].Offset)
	assert.Equal(t, "a", resp.Slots[2].Photo.ID)
	assert.False(t, resp.Slots[2].Loaded)
}

func TestFeedSocketRejectsPlainRequests(t *testing.T) {
	s := newTestServer(&stubPhotoStore{})

	// a failed upgrade answers with the upgrader's own response only;
	// no JSON error body is written on top of it
	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/feed/live", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "message")

	w = doRequest(s, httptest.NewRequest(http.MethodGet, "/feed/selfie", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid photo type")
}

func TestAdminRouteRequiresToken(t *testing.T) {
	s := newTestServer(&stubPhotoStore{})

	w := doRequest(s, httptest.NewRequest(http.MethodGet, "/admin/orphans", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
