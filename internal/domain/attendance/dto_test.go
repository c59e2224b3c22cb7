package attendance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

func strPtr(s string) *string { return &s }

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		fields []string
	}{
		{"valid week", Filter{StartDate: "2024-03-04", EndDate: "2024-03-10"}, nil},
		{"single day", Filter{StartDate: "2024-03-04", EndDate: "2024-03-04"}, nil},
		{"status any case", Filter{StartDate: "2024-03-04", EndDate: "2024-03-04", Status: strPtr("Late")}, nil},
		{"missing dates", Filter{}, []string{"start_date", "end_date"}},
		{"bad format", Filter{StartDate: "04/03/2024", EndDate: "2024-03-04"}, []string{"start_date"}},
		{"end before start", Filter{StartDate: "2024-03-10", EndDate: "2024-03-04"}, []string{"end_date"}},
		{"range too large", Filter{StartDate: "2023-01-01", EndDate: "2024-03-04"}, []string{"end_date"}},
		{"unknown status", Filter{StartDate: "2024-03-04", EndDate: "2024-03-04", Status: strPtr("sleeping")}, []string{"status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			got := verrs.ToMap()
			assert.Len(t, got, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, got, f)
			}
		})
	}
}

func TestFilterNormalize(t *testing.T) {
	upper := Filter{StartDate: "2024-03-04", EndDate: "2024-03-10", Status: strPtr(" Late ")}
	lower := Filter{StartDate: "2024-03-04", EndDate: "2024-03-10", Status: strPtr("late")}

	assert.Equal(t, lower.Key(), upper.Key())

	n := upper.Normalize()
	require.NotNil(t, n.Status)
	assert.Equal(t, "late", *n.Status)
	assert.Equal(t, " Late ", *upper.Status)

	blank := Filter{StartDate: "2024-03-04", EndDate: "2024-03-10", Status: strPtr("  ")}
	assert.Nil(t, blank.Normalize().Status)
}

func TestFilterKey(t *testing.T) {
	a := Filter{StartDate: "2024-03-04", EndDate: "2024-03-10", Department: strPtr("Engineering")}
	b := Filter{StartDate: "2024-03-04", EndDate: "2024-03-10", Department: strPtr("Engineering")}
	c := Filter{StartDate: "2024-03-04", EndDate: "2024-03-10", Shift: strPtr("Engineering")}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())

	day := a.ForDay("2024-03-06")
	assert.Equal(t, "2024-03-06", day.StartDate)
	assert.Equal(t, "2024-03-06", day.EndDate)
	assert.Equal(t, "2024-03-04", a.StartDate)
}

func TestIDUnmarshal(t *testing.T) {
	var rec struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x-1","b":42,"c":null}`), &rec))
	assert.Equal(t, ID("x-1"), rec.A)
	assert.Equal(t, ID("42"), rec.B)
	assert.Equal(t, ID(""), rec.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &rec))
}

func TestRecordHelpers(t *testing.T) {
	out := "2024-03-04T17:00:00Z"
	blank := "  "
	capacity := 6.0

	assert.True(t, Record{}.IsOpen())
	assert.True(t, Record{CheckOut: &blank}.IsOpen())
	assert.False(t, Record{CheckOut: &out}.IsOpen())

	assert.Equal(t, DefaultCapacity, Record{}.ExpectedHours())
	assert.Equal(t, 6.0, Record{Capacity: &capacity}.ExpectedHours())
}

func TestSyncDevicesRequestValidate(t *testing.T) {
	assert.Error(t, (&SyncDevicesRequest{}).Validate())
	assert.Error(t, (&SyncDevicesRequest{DeviceIDs: []string{"d1", " "}}).Validate())
	assert.NoError(t, (&SyncDevicesRequest{DeviceIDs: []string{"d1"}}).Validate())
}
