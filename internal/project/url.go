package project

import (
	"errors"
	"regexp"
	"strings"
)

var (
	sheetURL      = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	sheetUserURL  = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/u/\d+/d/([a-zA-Z0-9_-]+)`)
	bareSheetID   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	ErrInvalidURL = errors.New("invalid Google Sheets URL")
)

// ValidateSpreadsheetURL accepts a Google Sheets URL (optionally with a /u/N
// account segment) or a bare sheet id, and returns the id and canonical URL.
func ValidateSpreadsheetURL(raw string) (sheetID, canonical string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrInvalidURL
	}
	for _, re := range []*regexp.Regexp{sheetURL, sheetUserURL} {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], canonicalURL(m[1]), nil
		}
	}
	if bareSheetID.MatchString(raw) {
		return raw, canonicalURL(raw), nil
	}
	return "", "", ErrInvalidURL
}

func canonicalURL(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id
}
