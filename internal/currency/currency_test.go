package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "INR", NormalizeCode(""))
	assert.Equal(t, "INR", NormalizeCode("  "))
	assert.Equal(t, "USD", NormalizeCode(" usd "))
	assert.Equal(t, "EUR", NormalizeCode("eur"))
}

func TestConvert(t *testing.T) {
	assert.Equal(t, 1112.0, Convert(1112, 1))
	assert.InDelta(t, 13.344, Convert(1112, 0.012), 1e-9)
	assert.Equal(t, 0.0, Convert(0, 83.2))
}

func TestFormat_KnownCode(t *testing.T) {
	got := Format(1112, "USD")
	assert.Contains(t, got, "1,112.00")

	got = Format(0.5, "inr")
	assert.Contains(t, got, "0.50")
}

func TestFormat_UnknownCodeFallsBack(t *testing.T) {
	assert.Equal(t, "ZZ 12.00", Format(12, "zz"))
	assert.Equal(t, "WAT 1112.50", Format(1112.5, "wat"))
}
