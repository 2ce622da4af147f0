package engine

import (
	"io"
	"os"
)

const truncatedMarker = "...(truncated)"

// ReadLimitedFile returns at most maxBytes of the file at path, marking a cut.
// Unreadable files read as empty.
func ReadLimitedFile(path string, maxBytes int64) string {
	if path == "" || maxBytes <= 0 {
		return ""
	}
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return ""
	}
	if int64(len(data)) > maxBytes {
		return string(data[:maxBytes]) + truncatedMarker
	}
	return string(data)
}
