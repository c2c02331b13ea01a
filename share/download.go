// Package share resolves download and share actions for stored photos
// against browsers and platforms whose capabilities are unknown in
// advance. Every path degrades to a weaker but functional fallback;
// nothing here is a hard failure.
package share

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gef-festival/photo-mixer/log"
)

const (
	ManualSaveInstruction = `Please right-click on the image and select "Save image as..." to download.`
	PopupBlockedMessage   = `Download blocked by browser. Please allow popups and try again, or right-click the image above and select "Save image as..."`
)

// Result is the outcome of one successful download strategy. Exactly
// one of Payload, RedirectURL or Instruction is meaningful.
type Result struct {
	Strategy string `json:"strategy"`

	// Payload is set when the strategy materialized the image bytes.
	Payload     []byte `json:"-"`
	ContentType string `json:"contentType,omitempty"`

	// RedirectURL is set when the strategy navigates to the remote URL
	// directly, in a new browsing context.
	RedirectURL string `json:"redirectURL,omitempty"`

	// Instruction asks the user to save the image manually; Fallback
	// carries the alternative message for a blocked popup.
	Instruction string `json:"instruction,omitempty"`
	Fallback    string `json:"fallback,omitempty"`

	Filename string `json:"filename"`
}

// DownloadStrategy is one rung of the download fallback ladder. A
// strategy catches its own failures and reports them as an error so the
// resolver can fall through to the next rung.
type DownloadStrategy interface {
	Name() string
	Attempt(ctx context.Context, url, filename string) (*Result, error)
}

// Resolver tries its strategies in strict order until one succeeds.
type Resolver struct {
	strategies []DownloadStrategy
}

func NewResolver(strategies ...DownloadStrategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// DefaultResolver builds the four-rung ladder: interoperable fetch,
// opaque fetch, direct link, manual instruction.
func DefaultResolver(client *http.Client, origin string) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return NewResolver(
		&CORSFetch{Client: client, Origin: origin},
		&OpaqueFetch{Client: client},
		&DirectLink{},
		&ManualInstruction{},
	)
}

// Resolve returns the first strategy result. The final rung always
// succeeds, so an error here means the resolver was built empty.
func (r *Resolver) Resolve(ctx context.Context, url, filename string) (*Result, error) {
	for _, strategy := range r.strategies {
		result, err := strategy.Attempt(ctx, url, filename)
		if err != nil {
			log.Debug("download strategy failed, falling through",
				zap.String("strategy", strategy.Name()), zap.Error(err), log.SourceShare)
			continue
		}

		result.Strategy = strategy.Name()
		result.Filename = filename
		return result, nil
	}

	return nil, fmt.Errorf("no download strategy succeeded")
}

// CORSFetch fetches the resource in an interoperable cross-origin mode
// and materializes the payload for an attachment download.
type CORSFetch struct {
	Client *http.Client
	Origin string
}

func (s *CORSFetch) Name() string { return "cors-fetch" }

func (s *CORSFetch) Attempt(ctx context.Context, url, filename string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.Origin != "" {
		req.Header.Set("Origin", s.Origin)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Result{
		Payload:     payload,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// OpaqueFetch fetches without cross-origin headers and accepts any
// non-empty payload, status notwithstanding.
type OpaqueFetch struct {
	Client *http.Client
}

func (s *OpaqueFetch) Name() string { return "opaque-fetch" }

func (s *OpaqueFetch) Attempt(ctx context.Context, url, filename string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	return &Result{
		Payload:     payload,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// DirectLink points the browser at the remote URL with a download hint,
// opened in a new context.
type DirectLink struct{}

func (s *DirectLink) Name() string { return "direct-link" }

func (s *DirectLink) Attempt(ctx context.Context, url, filename string) (*Result, error) {
	if url == "" {
		return nil, fmt.Errorf("no url to link")
	}

	return &Result{RedirectURL: url}, nil
}

// ManualInstruction is the last rung: open the image and ask the user
// to save it by hand.
type ManualInstruction struct{}

func (s *ManualInstruction) Name() string { return "manual" }

func (s *ManualInstruction) Attempt(ctx context.Context, url, filename string) (*Result, error) {
	return &Result{
		RedirectURL: url,
		Instruction: ManualSaveInstruction,
		Fallback:    PopupBlockedMessage,
	}, nil
}
