package models

import (
	"net/url"
	"strings"
)

type SummaryLength string

const (
	LengthShort  SummaryLength = "short"
	LengthMedium SummaryLength = "medium"
	LengthLong   SummaryLength = "long"
)

func (l SummaryLength) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

type SummaryMode string

const (
	ModeText SummaryMode = "text"
	ModeURL  SummaryMode = "url"
)

type SummaryRequest struct {
	Mode   SummaryMode   `json:"mode"`
	Text   string        `json:"text,omitempty"`
	URL    string        `json:"url,omitempty"`
	Length SummaryLength `json:"length"`
}

// WithDefaults fills the mode from whichever input is present and the
// length with medium.
func (r SummaryRequest) WithDefaults() SummaryRequest {
	if r.Mode == "" {
		if strings.TrimSpace(r.URL) != "" && strings.TrimSpace(r.Text) == "" {
			r.Mode = ModeURL
		} else {
			r.Mode = ModeText
		}
	}
	if r.Length == "" {
		r.Length = LengthMedium
	}
	return r
}

func (r SummaryRequest) Validate() error {
	errs := FieldErrors{}
	if !r.Length.Valid() {
		errs.Add("length", "Length must be one of short, medium or long.")
	}

	switch r.Mode {
	case ModeText:
		if strings.TrimSpace(r.Text) == "" {
			errs.Add("text", "Please enter some text to summarize.")
		}
	case ModeURL:
		if strings.TrimSpace(r.URL) == "" {
			errs.Add("url", "Please enter a URL to summarize.")
		} else if !IsWebURL(r.URL) {
			errs.Add("url", "Invalid URL format. Please enter a valid URL (e.g., https://example.com).")
		}
	default:
		errs.Add("mode", "Mode must be text or url.")
	}

	return errs.Err()
}

// IsWebURL reports whether raw is an absolute http(s) URL with a host.
func IsWebURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type WebpageSummary struct {
	Summary   string `json:"summary"`
	SourceURL string `json:"sourceUrl"`
}

type SummaryResult struct {
	Summary   string `json:"summary"`
	SourceURL string `json:"sourceUrl,omitempty"`
}
