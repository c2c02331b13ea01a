package feed

import (
	"context"
	"sync"
	"time"

	mixer "github.com/gef-festival/photo-mixer"
)

// Carousel pages a display index over an already-synchronized photo
// list on a fixed timer, wrapping modulo the list length. It is purely
// presentational and carries no data-consistency responsibility.
type Carousel struct {
	mu       sync.RWMutex
	photos   []mixer.PhotoRecord
	index    int
	interval time.Duration
}

// WindowItem is one visible carousel slot relative to the current index.
type WindowItem struct {
	Offset int               `json:"offset"`
	Photo  mixer.PhotoRecord `json:"photo"`
}

func NewCarousel(interval time.Duration) *Carousel {
	return &Carousel{interval: interval}
}

// SetPhotos replaces the synchronized list. The current index is kept
// in bounds of the new list.
func (c *Carousel) SetPhotos(photos []mixer.PhotoRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.photos = photos
	if len(photos) == 0 {
		c.index = 0
	} else {
		c.index = c.index % len(photos)
	}
}

// Advance rotates to the next photo, wrapping at the end.
func (c *Carousel) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.photos) > 0 {
		c.index = (c.index + 1) % len(c.photos)
	}
}

// Current returns the photo under the display index.
func (c *Carousel) Current() (mixer.PhotoRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.photos) == 0 {
		return mixer.PhotoRecord{}, false
	}
	return c.photos[c.index], true
}

// Window returns the visible slots at offsets -radius..+radius around
// the current index, wrapped modulo the list length. For a non-empty
// list every returned index is in bounds.
func (c *Carousel) Window(radius int) []WindowItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.photos)
	if n == 0 {
		return nil
	}

	items := make([]WindowItem, 0, 2*radius+1)
	for offset := -radius; offset <= radius; offset++ {
		i := ((c.index+offset)%n + n) % n
		items = append(items, WindowItem{Offset: offset, Photo: c.photos[i]})
	}

	return items
}

// Start rotates the carousel on its interval until the context ends.
func (c *Carousel) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Advance()
			}
		}
	}()
}
