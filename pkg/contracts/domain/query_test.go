package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewFilterQuery(t *testing.T) {
	tests := []struct {
		name    string
		region  string
		typ     string
		start   string
		end     string
		want    FilterQuery
		wantErr string
	}{
		{
			name: "empty query",
			want: FilterQuery{},
		},
		{
			name:   "all fields",
			region: "Albany",
			typ:    "organic",
			start:  "2015-01-04",
			end:    "2015-12-27",
			want:   FilterQuery{Region: "Albany", Type: AvocadoTypeOrganic, StartDate: day("2015-01-04"), EndDate: day("2015-12-27")},
		},
		{
			name:   "unknown values are kept",
			region: "Atlantis",
			typ:    "hass",
			want:   FilterQuery{Region: "Atlantis", Type: "hass"},
		},
		{name: "bad start", start: "2015/01/04", wantErr: "invalid start_date"},
		{name: "impossible end", end: "2015-02-30", wantErr: "invalid end_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFilterQuery(tt.region, tt.typ, tt.start, tt.end)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterQueryMatches(t *testing.T) {
	rec := PriceRecord{
		Date:   time.Date(2015, 1, 11, 0, 0, 0, 0, time.UTC),
		Region: "Albany",
		Type:   AvocadoTypeOrganic,
	}

	tests := []struct {
		name string
		q    FilterQuery
		want bool
	}{
		{"no constraints", FilterQuery{}, true},
		{"region and type", FilterQuery{Region: "Albany", Type: AvocadoTypeOrganic}, true},
		{"other region", FilterQuery{Region: "Boston"}, false},
		{"other type", FilterQuery{Type: AvocadoTypeConventional}, false},
		{"start equals date", FilterQuery{StartDate: day("2015-01-11")}, true},
		{"end equals date", FilterQuery{EndDate: day("2015-01-11")}, true},
		{"single day window", FilterQuery{StartDate: day("2015-01-11"), EndDate: day("2015-01-11")}, true},
		{"after end", FilterQuery{EndDate: day("2015-01-10")}, false},
		{"before start", FilterQuery{StartDate: day("2015-01-12")}, false},
		{"inverted window", FilterQuery{StartDate: day("2015-01-12"), EndDate: day("2015-01-04")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Matches(rec))
		})
	}
}

func TestFilterQueryMatchesIgnoresClock(t *testing.T) {
	rec := PriceRecord{Date: time.Date(2015, 1, 11, 23, 30, 0, 0, time.UTC)}
	assert.True(t, FilterQuery{EndDate: day("2015-01-11")}.Matches(rec))
}

func TestFilterQueryIsInverted(t *testing.T) {
	assert.True(t, FilterQuery{StartDate: day("2015-02-01"), EndDate: day("2015-01-01")}.IsInverted())
	assert.False(t, FilterQuery{StartDate: day("2015-01-01"), EndDate: day("2015-01-01")}.IsInverted())
	assert.False(t, FilterQuery{StartDate: day("2015-02-01")}.IsInverted())
}

func TestFilterQueryJSON(t *testing.T) {
	q := FilterQuery{Region: "Boston", StartDate: day("2016-03-06")}

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"region":"Boston","start_date":"2016-03-06"}`, string(data))

	var decoded FilterQuery
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, q, decoded)

	err = json.Unmarshal([]byte(`{"end_date":"06/03/2016"}`), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_date")
}

func TestFilterQueryString(t *testing.T) {
	q := FilterQuery{Region: "Albany", Type: AvocadoTypeOrganic, StartDate: day("2015-01-04")}
	assert.Equal(t, `region="Albany" type="organic" start=2015-01-04 end=`, q.String())
}
