package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/trustflow/pkg/utils/logging"
)

// maxDrain bounds how much of an unread body is discarded to keep the connection reusable
const maxDrain = 64 << 10

// Close closes closer and logs a failure together with attrs. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer, attrs ...any) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("failed to close", append(attrs, "error", err)...)
	}
}

// DrainClose discards what is left of an HTTP response body and closes it
func DrainClose(ctx context.Context, body io.ReadCloser, attrs ...any) {
	if body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, body, maxDrain)
	Close(ctx, body, attrs...)
}

// Write writes data to w and logs a failure. Used for response bodies after the header was sent.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("failed to write", "error", err, "size", len(data))
	}
}
