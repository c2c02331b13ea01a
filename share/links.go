package share

import (
	"fmt"
	"net/url"
)

// Message is the descriptive text shared alongside a photo.
type Message struct {
	Title   string `json:"title"`
	Text    string `json:"text"`
	PageURL string `json:"pageURL"`
}

// Combined is the text+URL body used when a platform cannot take an
// image file.
func (m Message) Combined() string {
	return fmt.Sprintf("%s\n\n%s", m.Text, m.PageURL)
}

// PlatformLinks are the templated share URLs per platform. These are
// plain navigations opened in a new browsing context; no error handling
// is needed for them.
type PlatformLinks struct {
	Twitter  string `json:"twitter"`
	Facebook string `json:"facebook"`
	LinkedIn string `json:"linkedin"`
}

func Links(m Message) PlatformLinks {
	return PlatformLinks{
		Twitter: fmt.Sprintf("https://twitter.com/intent/tweet?text=%s",
			url.QueryEscape(fmt.Sprintf("%s %s", m.Text, m.PageURL))),
		Facebook: fmt.Sprintf("https://www.facebook.com/sharer/sharer.php?u=%s&quote=%s",
			url.QueryEscape(m.PageURL), url.QueryEscape(m.Text)),
		LinkedIn: fmt.Sprintf("https://www.linkedin.com/sharing/share-offsite/?url=%s&title=%s&summary=%s",
			url.QueryEscape(m.PageURL), url.QueryEscape(m.Title), url.QueryEscape(m.Text)),
	}
}
