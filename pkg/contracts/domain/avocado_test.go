package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAvocadoType(t *testing.T) {
	got, err := ParseAvocadoType(" organic ")
	require.NoError(t, err)
	assert.Equal(t, AvocadoTypeOrganic, got)
	assert.Equal(t, "Organic", got.Label())

	_, err = ParseAvocadoType("Organic")
	assert.Error(t, err, "types are case sensitive")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2015-01-04")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 1, 4, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"", "2015-1-4", "04/01/2015", "2015-02-29", "2015-13-01"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestPriceRecordJSON(t *testing.T) {
	rec := PriceRecord{
		Date:         time.Date(2015, 12, 27, 0, 0, 0, 0, time.UTC),
		Region:       "Albany",
		Type:         AvocadoTypeConventional,
		AveragePrice: 1.33,
		TotalVolume:  64236.62,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2015-12-27","region":"Albany","type":"conventional","average_price":1.33,"total_volume":64236.62}`, string(data))
}

func TestDateBounds(t *testing.T) {
	b := DateBounds{Min: time.Date(2015, 1, 4, 0, 0, 0, 0, time.UTC), Max: time.Date(2018, 3, 25, 0, 0, 0, 0, time.UTC)}

	assert.True(t, b.Contains(b.Min))
	assert.True(t, b.Contains(time.Date(2018, 3, 25, 18, 0, 0, 0, time.UTC)))
	assert.False(t, b.Contains(time.Date(2015, 1, 3, 0, 0, 0, 0, time.UTC)))

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"min":"2015-01-04","max":"2018-03-25"}`, string(data))

	var decoded DateBounds
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b, decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"min":"soon"}`), &decoded))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Organic", TitleCase("organic"))
	assert.Equal(t, "Great Lakes", TitleCase("great  LAKES"))
	assert.Equal(t, "", TitleCase(""))
}
