package builder

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Progress tracks build and upload progress.
type Progress struct {
	Phase          string
	TablesDone     int
	TablesTotal    int
	EntriesWritten int64
	BytesRead      int64
	BytesWritten   int64
	StartTime      time.Time
	Error          error
}

// ProgressFunc is called periodically with progress updates.
type ProgressFunc func(Progress)

// progressWriter wraps an io.Writer to track bytes written.
type progressWriter struct {
	w       io.Writer
	written *atomic.Int64
}

func newProgressWriter(w io.Writer, counter *atomic.Int64) *progressWriter {
	return &progressWriter{w: w, written: counter}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.written.Add(int64(n))
	return n, err
}

// FormatBytes formats bytes as human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// DefaultProgressFunc prints progress to stdout.
func DefaultProgressFunc(p Progress) {
	switch p.Phase {
	case "scan":
		fmt.Printf("[Scan] listing raw tables\n")
	case "pack":
		fmt.Printf("\r[Pack] %d / %d tables, %s -> %s",
			p.TablesDone, p.TablesTotal, FormatBytes(p.BytesRead), FormatBytes(p.BytesWritten))
	case "upload":
		fmt.Printf("\r[Upload] %d / %d files, %s",
			p.TablesDone, p.TablesTotal, FormatBytes(p.BytesWritten))
	case "done":
		elapsed := time.Since(p.StartTime)
		fmt.Printf("\n[Done] %d tables, %d entries (%s)\n",
			p.TablesDone, p.EntriesWritten, FormatDuration(elapsed))
	case "error":
		fmt.Printf("\n[Error] %v\n", p.Error)
	}
}
