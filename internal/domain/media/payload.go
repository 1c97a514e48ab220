package media

import (
	"encoding/base64"
	"strings"
)

// decodePayload turns the incoming media payload into raw bytes plus a
// content type. The payload may be a base64 data URI (content type taken
// from the URI header), a bare base64 string, or raw bytes passed
// through a string; callers never pre-decode.
func decodePayload(mediaData, declaredType string) ([]byte, string, error) {
	if mediaData == "" {
		return nil, "", ErrEmptyPayload
	}

	if strings.HasPrefix(mediaData, "data:") {
		header, body, found := strings.Cut(mediaData, ",")
		if !found {
			return nil, "", ErrBadDataURI
		}

		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", ErrBadDataURI
		}
		contentType := strings.TrimSuffix(meta, ";base64")
		if contentType == "" {
			contentType = declaredType
		}

		data, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, "", ErrBadDataURI
		}
		if len(data) == 0 {
			return nil, "", ErrEmptyPayload
		}
		return data, contentType, nil
	}

	// bare base64 without the data: header
	if data, err := base64.StdEncoding.DecodeString(mediaData); err == nil && len(data) > 0 {
		return data, declaredType, nil
	}

	// raw binary carried in the string
	return []byte(mediaData), declaredType, nil
}
