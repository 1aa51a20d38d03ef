package download

import (
	"io"
	"log/slog"
	"time"
)

const progressEvery = time.Second

// meter counts bytes on their way to w and reports them through logger,
// at most once per progressEvery and once more when the body ends.
type meter struct {
	w       io.Writer
	logger  *slog.Logger
	total   int64
	written int64
	began   time.Time
	last    time.Time
}

func newMeter(w io.Writer, logger *slog.Logger, total int64) *meter {
	now := time.Now()
	return &meter{w: w, logger: logger, total: total, began: now, last: now}
}

func (m *meter) Write(p []byte) (int, error) {
	n, err := m.w.Write(p)
	m.written += int64(n)

	if now := time.Now(); now.Sub(m.last) >= progressEvery {
		m.last = now
		m.report("media transfer")
	}

	return n, err
}

func (m *meter) report(msg string) {
	args := []any{"bytes", m.written, "elapsed", time.Since(m.began).Round(time.Millisecond)}
	if m.total > 0 {
		args = append(args, "total", m.total, "percent", m.written*100/m.total)
	}

	m.logger.Info(msg, args...)
}
