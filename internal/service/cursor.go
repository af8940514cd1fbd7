package service

import (
	"encoding/base64"
	"fmt"
)

// DecodeCursor decodes a base64-encoded cursor string into the identifier it points past.
// Returns an empty string if the cursor is empty.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to decode cursor: %w", err)
	}
	if len(decoded) == 0 {
		return "", fmt.Errorf("invalid cursor format: empty identifier")
	}

	return string(decoded), nil
}

// EncodeCursor encodes a distribution identifier into a base64 cursor string
func EncodeCursor(identifier string) string {
	return base64.URLEncoding.EncodeToString([]byte(identifier))
}
