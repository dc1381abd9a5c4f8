package client

import (
	"encoding/json"
	"fmt"
	"io"
)

// Formatter formats results for output.
type Formatter interface {
	FormatIssue(w io.Writer, result IssueResult) error
	FormatRoundTrip(w io.Writer, result *RoundTripResult) error
	FormatError(w io.Writer, err error) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatIssue prints the issued URLs, one per line.
func (f *HumanFormatter) FormatIssue(w io.Writer, result IssueResult) error {
	if f.Quiet {
		if result.PutURL != "" {
			_, _ = fmt.Fprintln(w, result.PutURL)
		}
		_, _ = fmt.Fprintln(w, result.GetURL)
		return nil
	}

	_, _ = fmt.Fprintf(w, "Key: %s\n", result.Key)
	if result.PutURL != "" {
		_, _ = fmt.Fprintf(w, "PUT (Content-Type: %s):\n  %s\n", result.ContentType, result.PutURL)
	}
	_, _ = fmt.Fprintf(w, "GET:\n  %s\n", result.GetURL)
	_, _ = fmt.Fprintf(w, "Expires in: %ds\n", result.ExpiresIn)
	return nil
}

// FormatRoundTrip prints an upload summary.
func (f *HumanFormatter) FormatRoundTrip(w io.Writer, result *RoundTripResult) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, result.GetURL)
		return nil
	}

	_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s (%s, %s)\n", result.LocalPath, result.Key, result.ContentType, formatSize(result.Size))
	if result.ETag != "" {
		_, _ = fmt.Fprintf(w, "  ETag: %s\n", result.ETag)
	}
	if result.Verified {
		_, _ = fmt.Fprintln(w, "  Verified: downloaded bytes match")
	}
	_, _ = fmt.Fprintf(w, "  GET: %s\n", result.GetURL)
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatIssue formats issued URLs as JSON.
func (f *JSONFormatter) FormatIssue(w io.Writer, result IssueResult) error {
	return writeJSON(w, result)
}

// FormatRoundTrip formats an upload summary as JSON.
func (f *JSONFormatter) FormatRoundTrip(w io.Writer, result *RoundTripResult) error {
	return writeJSON(w, result)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
