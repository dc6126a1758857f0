package api

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeReceiptImage turns a stored receipt image (a data URL such as
// "data:image/png;base64,..." or a bare base64 string) back into bytes plus
// a file extension for the multipart part name.
func DecodeReceiptImage(stored string) ([]byte, string, error) {
	if stored == "" {
		return nil, "", nil
	}

	raw := stored
	ext := "png"

	if strings.HasPrefix(stored, "data:") {
		comma := strings.Index(stored, ",")
		if comma < 0 {
			return nil, "", &DecodeError{Err: fmt.Errorf("malformed data URL")}
		}
		meta := stored[len("data:"):comma]
		raw = stored[comma+1:]

		if !strings.Contains(meta, ";base64") {
			return nil, "", &DecodeError{Err: fmt.Errorf("unsupported data URL encoding %q", meta)}
		}

		switch {
		case strings.HasPrefix(meta, "image/jpeg"):
			ext = "jpg"
		case strings.HasPrefix(meta, "image/webp"):
			ext = "webp"
		case strings.HasPrefix(meta, "image/gif"):
			ext = "gif"
		}
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", &DecodeError{Err: err}
	}
	return data, ext, nil
}
