package logsink

import (
	"fmt"
	"path"
	"time"
)

// DateFolderFormat is the format string for organizing logs by date in blob storage
// Format: YYYY/MM/DD
const DateFolderFormat = "%d/%02d/%02d"

// FormatDateFolder returns the date-based folder path for a given year, month, day
func FormatDateFolder(year int, month int, day int) string {
	return fmt.Sprintf(DateFolderFormat, year, month, day)
}

// BlobName is where lines logged at t by host land: one append blob per
// host per UTC day.
func BlobName(prefix, host string, t time.Time) string {
	t = t.UTC()
	return path.Join(prefix, FormatDateFolder(t.Year(), int(t.Month()), t.Day()), host+".jsonl")
}
