package document

import (
	"fmt"
	"time"
)

// TimestampLayout renders UTC with a fixed seven-digit fraction. The width
// never varies, so the lexical order of rendered timestamps equals their
// chronological order, and the precision keeps concurrent writes from
// colliding at format granularity.
const TimestampLayout = "2006-01-02T15:04:05.0000000Z07:00"

// Timestamp is a UTC instant rendered in a fixed-width sortable form
type Timestamp struct {
	time.Time
}

// Now returns the current instant as a Timestamp
func Now() Timestamp {
	return Timestamp{time.Now().UTC()}
}

// At converts a time.Time to a Timestamp
func At(t time.Time) Timestamp {
	return Timestamp{t.UTC()}
}

// String renders the fixed-width form
func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid timestamp literal %q", s)
	}
	s = s[1 : len(s)-1]
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		// Tolerate plain RFC3339 written by older records
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("failed to parse timestamp %q: %w", s, err)
		}
	}
	*t = Timestamp{parsed.UTC()}
	return nil
}
