package lang

import (
	"context"
	"io"
	"log/slog"

	"github.com/klauspost/readahead"
)

// ParseReader reads all of r and parses it as a template.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Template, error) {
	// Read-ahead fetches the next chunk while the previous one is copied.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	makeOptions(opts...).logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
	)

	return Parse(ctx, string(data), opts...)
}
