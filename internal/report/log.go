package report

import (
	"context"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/fakeprinter/internal/stats"
)

// Log writes the text report for s to log at debug level, one record per
// non-blank line, so it lands in the log file next to the run's other
// records. Console handlers at info level drop it.
func Log(ctx context.Context, log *slog.Logger, s stats.Summary) {
	var b strings.Builder
	// strings.Builder never fails a write.
	_ = WriteText(&b, s)

	for _, line := range strings.Split(b.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		log.Log(ctx, slog.LevelDebug, "summary", "line", line)
	}
}
