package share

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gef-festival/photo-mixer/log"
)

// Outcomes of a native share attempt, weakest last.
const (
	OutcomeFileAndText  = "file_and_text"
	OutcomeFileThenText = "file_then_text"
	OutcomeTextOnly     = "text_only"
	OutcomeClipboard    = "clipboard"
)

// textRetryDelay separates the file share from the follow-up text share
// on platforms that reject multi-part sharing.
const textRetryDelay = time.Second

// NativeTarget is the OS share sheet as far as this code can see it.
// Capabilities are unknown in advance; every call may fail.
type NativeTarget interface {
	CanShareFiles() bool
	ShareFile(ctx context.Context, filename string, payload []byte, title, text string) error
	ShareText(ctx context.Context, title, text string) error
	CopyToClipboard(ctx context.Context, text string) error
}

// ShareNative walks the native share ladder: file+text together, file
// then text after a fixed delay, text only, and finally clipboard copy.
// The returned outcome names the rung that succeeded.
func ShareNative(ctx context.Context, target NativeTarget, filename string, payload []byte, m Message) (string, error) {
	if target.CanShareFiles() && len(payload) > 0 {
		err := target.ShareFile(ctx, filename, payload, m.Title, m.Combined())
		if err == nil {
			return OutcomeFileAndText, nil
		}
		log.Debug("multi-part share rejected, retrying file alone", zap.Error(err), log.SourceShare)

		if err := target.ShareFile(ctx, filename, payload, "", ""); err == nil {
			select {
			case <-time.After(textRetryDelay):
			case <-ctx.Done():
				return OutcomeFileThenText, nil
			}

			if err := target.ShareText(ctx, m.Title, m.Combined()); err != nil {
				log.Debug("text share after image failed", zap.Error(err), log.SourceShare)
			}
			return OutcomeFileThenText, nil
		}
	}

	if err := target.ShareText(ctx, m.Title, m.Combined()); err == nil {
		return OutcomeTextOnly, nil
	}

	if err := target.CopyToClipboard(ctx, m.Combined()); err != nil {
		return "", err
	}

	return OutcomeClipboard, nil
}
