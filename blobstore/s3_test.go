package blobstore

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReaderReportsCumulativeBytes(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 100)

	var transferred []int64
	reader := &progressReader{
		r:     bytes.NewReader(body),
		total: int64(len(body)),
		progress: func(n, total int64) {
			assert.EqualValues(t, 100, total)
			transferred = append(transferred, n)
		},
	}

	out, err := io.ReadAll(io.LimitReader(reader, 40))
	require.NoError(t, err)
	require.Len(t, out, 40)

	_, err = io.Copy(io.Discard, reader)
	require.NoError(t, err)

	require.NotEmpty(t, transferred)
	last := int64(0)
	for _, n := range transferred {
		assert.GreaterOrEqual(t, n, last)
		last = n
	}
	assert.EqualValues(t, 100, last)
}

func TestProgressReaderWithoutCallback(t *testing.T) {
	reader := &progressReader{
		r:     bytes.NewReader([]byte("payload")),
		total: 7,
	}

	out, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(out))
}

func TestPublicURLVirtualHosted(t *testing.T) {
	s := &S3Store{bucket: "gef-photos"}

	assert.Equal(t,
		"https://gef-photos.s3.amazonaws.com/images/1700000000000-party.jpeg",
		s.PublicURL("images/1700000000000-party.jpeg"))
}

func TestPublicURLWithBaseURL(t *testing.T) {
	s := &S3Store{bucket: "gef-photos", baseURL: "https://cdn.gef.example.com"}

	assert.Equal(t,
		"https://cdn.gef.example.com/attending_photos/attending-1.png",
		s.PublicURL("attending_photos/attending-1.png"))
}

func TestPublicURLEscapesKey(t *testing.T) {
	s := &S3Store{bucket: "gef-photos"}

	assert.Equal(t,
		"https://gef-photos.s3.amazonaws.com/images/1-my%20photo.jpeg",
		s.PublicURL("images/1-my photo.jpeg"))
}
