package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidToken = errors.New("invalid pagination token")

// Cursor points just past the last row of a page over rows sorted by
// (created_at DESC, id DESC). The token handed to clients is opaque.
type Cursor struct {
	ID          string `json:"id"`
	CreatedUnix int64  `json:"created_unix,omitempty"`
}

// After builds the cursor for a row created at createdAt with the given id.
func After(id string, createdAt time.Time) Cursor {
	return Cursor{ID: id, CreatedUnix: createdAt.UnixMilli()}
}

// IsZero reports whether c points at the first page.
func (c Cursor) IsZero() bool {
	return c.ID == "" && c.CreatedUnix == 0
}

// CreatedAt is the cursor's timestamp in UTC, millisecond precision.
func (c Cursor) CreatedAt() time.Time {
	return time.UnixMilli(c.CreatedUnix).UTC()
}

// Token returns the URL-safe token for c.
func (c Cursor) Token() string {
	b, _ := json.Marshal(c) // two scalar fields, cannot fail
	return base64.URLEncoding.EncodeToString(b)
}

// Decode parses a token produced by Token. The empty token is the first page.
func Decode(token string) (Cursor, error) {
	var c Cursor
	if token == "" {
		return c, nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return c, ErrInvalidToken
	}
	if err := json.Unmarshal(b, &c); err != nil || c.ID == "" {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}
