package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSerial(t *testing.T) {
	assert.Equal(t, "B000001", FormatSerial(KindBook, 1))
	assert.Equal(t, "M000042", FormatSerial(KindMovie, 42))
	// 6桁を超えたら桁が伸びるだけ
	assert.Equal(t, "B1000000", FormatSerial(KindBook, 1000000))
}

func TestTrailingNumber(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"B000123", 123, true},
		{"OLD-12", 12, true},
		{"2024", 2024, true},
		{"B12X", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := trailingNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaxSuffix(t *testing.T) {
	assert.Equal(t, uint64(0), maxSuffix(nil))
	assert.Equal(t, uint64(31), maxSuffix([]string{"B000007", "LEGACY", "B000031", "B9X"}))
}

func TestSplitSerial(t *testing.T) {
	prefix, n, ok := splitSerial("M000005")
	assert.True(t, ok)
	assert.Equal(t, "M", prefix)
	assert.Equal(t, uint64(5), n)

	_, _, ok = splitSerial("LEGACY")
	assert.False(t, ok)
}

func TestMaxIssued(t *testing.T) {
	serials := []string{"M000003", "MISC-90", "M000011", "B000500"}
	assert.Equal(t, uint64(11), maxIssued(KindMovie, serials))
	assert.Equal(t, uint64(500), maxIssued(KindBook, serials))
	assert.Equal(t, uint64(0), maxIssued(KindBook, nil))
}
