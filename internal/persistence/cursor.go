// Package persistence contains helpers shared by repository implementations
// and the HTTP layer's pagination over record listings.
package persistence

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Cursor marks a position in the newest-first record ordering. Records at or
// before the cursor position have already been delivered.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// EncodeCursor serialises the cursor to an opaque token.
func EncodeCursor(c *Cursor) string {
	if c == nil {
		return ""
	}
	raw := fmt.Sprintf("%s|%s", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an encoded cursor token. An empty token yields a nil
// cursor, meaning start from the newest record.
func DecodeCursor(token string) (*Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, err
	}
	return &Cursor{CreatedAt: ts, ID: parts[1]}, nil
}
