package order

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// dateLayouts are tried in order when decoding a Date
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date is a nullable timestamp that tolerates the layouts emitted by the
// upstream system. Null, empty, non-string and unrecognised values decode to
// the zero Date; dates are display only and never reject an order.
type Date struct {
	Time  time.Time
	Valid bool
}

// NewDate wraps t as a valid Date
func NewDate(t time.Time) Date {
	return Date{Time: t, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	*d = Date{}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			*d = NewDate(t)
			return nil
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// HashID is the optional upstream reference of an order. Malformed values
// decode as absent.
type HashID struct {
	uuid.NullUUID
}

// UnmarshalJSON implements json.Unmarshaler
func (h *HashID) UnmarshalJSON(data []byte) error {
	var n uuid.NullUUID
	if err := n.UnmarshalJSON(data); err != nil {
		*h = HashID{}
		return nil
	}
	h.NullUUID = n
	return nil
}
