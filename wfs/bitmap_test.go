package wfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapSetAndGet(t *testing.T) {
	bitmap := NewBitmap(64)

	set, err := bitmap.IsSet(42)
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, bitmap.Set(42))

	set, err = bitmap.IsSet(42)
	require.NoError(t, err)
	assert.True(t, set)

	require.NoError(t, bitmap.Clear(42))

	set, err = bitmap.IsSet(42)
	require.NoError(t, err)
	assert.False(t, set)
}

func TestBitmapOutOfRange(t *testing.T) {
	bitmap := NewBitmap(32)

	err := bitmap.Set(32)
	require.Error(t, err)
	assert.IsType(t, OutOfRange{}, err)

	_, err = bitmap.IsSet(32)
	assert.Error(t, err)
}

func TestBitmapByteSize(t *testing.T) {
	tests := []struct {
		bits uint64
		want uint64
	}{
		{1, 4},
		{32, 4},
		{33, 8},
		{64, 8},
		{1024, 128},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BitmapByteSize(tt.bits), "byte size for %d bits", tt.bits)
	}
}

func TestBitmapCountSet(t *testing.T) {
	bitmap := NewBitmap(96)
	assert.Zero(t, bitmap.CountSet())

	require.NoError(t, bitmap.Set(0))
	require.NoError(t, bitmap.Set(31))
	require.NoError(t, bitmap.Set(95))
	assert.EqualValues(t, 3, bitmap.CountSet())
}

func TestBitmapFirstBitLandsInFirstWord(t *testing.T) {
	bitmap := NewBitmap(64)
	require.NoError(t, bitmap.Set(0))

	assert.Equal(t, uint32(1), bitmap[0])
	assert.Zero(t, bitmap[1])
}
