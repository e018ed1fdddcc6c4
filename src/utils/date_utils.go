package utils

import (
	"strings"
	"time"
)

// FeedTimeFormat is the timestamp layout of the exchange trade-history files.
const FeedTimeFormat = "2006/01/02 15:04"

// ParseFeedTime parses a feed timestamp. Returns nil for blank or unparsable
// values; a bad date degrades the row, it never fails it.
func ParseFeedTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(FeedTimeFormat, s)
	if err != nil {
		// Some exports carry seconds.
		t, err = time.Parse("2006/01/02 15:04:05", s)
		if err != nil {
			return nil
		}
	}
	return &t
}
