package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrorEntry is one level of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// zerror is the part of zerr.Error the formatter relies on.
type zerror interface {
	Message() string
	Metadata() map[string]any
}

// collectErrorEntries walks the chain of err. zerr levels contribute their own
// message and metadata; the first foreign error ends the chain.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	var pending map[string]any
	for current := err; current != nil; current = errors.Unwrap(current) {
		z, ok := current.(zerror)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: pending})
			break
		}
		// Metadata-only wrappers fold into the level they annotate.
		if z.Message() == "" {
			if len(entries) > 0 {
				maps.Copy(entries[len(entries)-1].Metadata, z.Metadata())
			} else {
				pending = z.Metadata()
			}
			continue
		}
		md := z.Metadata()
		maps.Copy(md, pending)
		pending = nil
		entries = append(entries, ErrorEntry{Message: z.Message(), Metadata: md})
	}
	return entries
}

// formatErrorEntries renders entries as the main error followed by its causes.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string
	for i, e := range entries {
		msgLines := strings.Split(e.Message, "\n")
		if i == 0 {
			lines = append(lines, "Error: "+msgLines[0])
			for _, l := range msgLines[1:] {
				lines = append(lines, "       "+l)
			}
			lines = append(lines, formatMetadata("       ", e.Metadata)...)
			continue
		}
		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+msgLines[0])
		for _, l := range msgLines[1:] {
			lines = append(lines, "      "+l)
		}
		lines = append(lines, formatMetadata("      ", e.Metadata)...)
	}
	return strings.Join(lines, "\n")
}

func formatMetadata(indent string, md map[string]any) []string {
	keys := slices.Sorted(maps.Keys(md))
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s%s: %v", indent, k, md[k]))
	}
	return lines
}

// splitJoined expands errors.Join trees into their leaves, in order.
func splitJoined(err error) []error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var res []error
	for _, e := range joined.Unwrap() {
		res = append(res, splitJoined(e)...)
	}
	return res
}
