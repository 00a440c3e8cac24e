package document

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_FixedWidth(t *testing.T) {
	instants := []time.Time{
		time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		time.Date(2024, 1, 2, 3, 4, 5, 123456700, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 999999900, time.UTC),
	}

	for _, instant := range instants {
		rendered := At(instant).String()
		assert.Len(t, rendered, len("2006-01-02T15:04:05.0000000Z"))
		assert.Equal(t, byte('Z'), rendered[len(rendered)-1])
	}
}

func TestTimestamp_LexicalOrderIsChronological(t *testing.T) {
	instants := []time.Time{
		time.Date(2024, 6, 1, 12, 0, 0, 900, time.UTC),
		time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 6, 1, 12, 0, 1, 0, time.UTC),
	}

	rendered := make([]string, len(instants))
	for i, instant := range instants {
		rendered[i] = At(instant).String()
	}

	sorted := append([]string(nil), rendered...)
	sort.Strings(sorted)

	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })
	expected := make([]string, len(instants))
	for i, instant := range instants {
		expected[i] = At(instant).String()
	}
	assert.Equal(t, expected, sorted)
}

func TestTimestamp_JSONRoundTrip(t *testing.T) {
	original := At(time.Date(2024, 6, 1, 12, 30, 45, 123456700, time.UTC))

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Timestamp
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded.Time))
}

func TestTimestamp_UnmarshalRFC3339Fallback(t *testing.T) {
	var decoded Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01T12:30:45Z"`), &decoded))
	assert.Equal(t, 2024, decoded.Year())
}

func TestTimestamp_ZeroMarshalsEmpty(t *testing.T) {
	data, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))

	var decoded Timestamp
	require.NoError(t, json.Unmarshal([]byte(`""`), &decoded))
	assert.True(t, decoded.IsZero())
}

func TestBase_EntityContract(t *testing.T) {
	var b Base

	b.SetID("movie-42:PG-13")
	assert.Equal(t, "movie-42:PG-13", b.GetID())

	now := time.Now()
	b.SetUpdatedAt(now)
	assert.True(t, b.GetUpdatedAt().Equal(now.UTC()))

	b.SetVersion([]byte("etag-1"))
	assert.Equal(t, []byte("etag-1"), b.GetVersion())

	assert.False(t, b.IsDeleted())
}
