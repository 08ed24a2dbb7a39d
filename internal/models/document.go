package models

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

const MIMETypePDF = "application/pdf"

// DataURI is a self-describing encoded document: a MIME type plus the raw bytes.
type DataURI struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes "data:<mime>[;param...][;base64],<payload>".
func ParseDataURI(raw string) (DataURI, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "data:") {
		return DataURI{}, fmt.Errorf("invalid data URI: missing data: scheme")
	}

	header, payload, ok := strings.Cut(raw[len("data:"):], ",")
	if !ok {
		return DataURI{}, fmt.Errorf("invalid data URI: missing payload separator")
	}

	params := strings.Split(header, ";")
	mimeType := strings.ToLower(strings.TrimSpace(params[0]))
	if mimeType == "" {
		mimeType = "text/plain"
	}

	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(payload)
			if err != nil {
				return DataURI{}, fmt.Errorf("invalid data URI: failed to decode base64 payload: %w", err)
			}
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return DataURI{}, fmt.Errorf("invalid data URI: failed to unescape payload: %w", err)
		}
		data = []byte(unescaped)
	}

	return DataURI{MIMEType: mimeType, Data: data}, nil
}

func NewDataURI(mimeType string, data []byte) DataURI {
	return DataURI{MIMEType: strings.ToLower(strings.TrimSpace(mimeType)), Data: data}
}

func (d DataURI) String() string {
	return fmt.Sprintf("data:%s;base64,%s", d.MIMEType, base64.StdEncoding.EncodeToString(d.Data))
}

func (d DataURI) IsPDF() bool {
	return d.MIMEType == MIMETypePDF
}

func (d DataURI) IsEmpty() bool {
	return len(d.Data) == 0
}
