package shared

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// BusinessTZ is the fixed UTC+8 zone the business operates in. Date-only
// values from clients are interpreted in this zone.
var BusinessTZ = time.FixedZone("UTC+8", 8*60*60)

// ParseDate accepts an RFC 3339 timestamp or a bare YYYY-MM-DD date, the two
// formats clients actually send.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, BusinessTZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("shared: parse date %q: %w", raw, err)
	}
	return t, nil
}

// DecodeImages decodes a batch of base64 images, tolerating data-URL
// prefixes.
func DecodeImages(encoded []string) ([][]byte, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	images := make([][]byte, 0, len(encoded))
	for i, s := range encoded {
		if at := strings.IndexByte(s, ','); at >= 0 && strings.HasPrefix(s, "data:") {
			s = s[at+1:]
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("shared: decode image %d: %w", i, err)
		}
		images = append(images, raw)
	}
	return images, nil
}
