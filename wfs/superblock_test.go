package wfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodedSizes(t *testing.T) {
	assert.Equal(t, SuperblockSize, binary.Size(Superblock{}))
	assert.Equal(t, InodeSize, binary.Size(Inode{}))
}

func TestSuperblockMagicOnDisk(t *testing.T) {
	sb := validSuperblock(t)

	buf := new(bytes.Buffer)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, sb))

	assert.Equal(t, []byte("WFS1"), buf.Bytes()[:4])
	assert.Len(t, buf.Bytes(), SuperblockSize)
}

func TestSuperblockValidate(t *testing.T) {
	sb := validSuperblock(t)
	require.NoError(t, sb.Validate())

	bad := sb
	bad.Magic = 0xdeadbeef
	err := bad.Validate()
	require.Error(t, err)
	var magicErr BadMagicError
	assert.True(t, errors.As(err, &magicErr))

	bad = sb
	bad.NumInodes = 33
	assert.Error(t, bad.Validate())

	bad = sb
	bad.IBitmapPtr = 100
	assert.Error(t, bad.Validate())

	bad = sb
	bad.IBlocksPtr = sb.IBlocksPtr + 1
	assert.Error(t, bad.Validate())

	bad = sb
	bad.DBlocksPtr = sb.IBlocksPtr
	assert.Error(t, bad.Validate())
}

func TestSuperblockLayoutRoundTrip(t *testing.T) {
	sb := validSuperblock(t)
	layout := sb.Layout()

	assert.Equal(t, sb.NumInodes, layout.NumInodes)
	assert.Equal(t, sb.IBlocksPtr, layout.IBlocksPtr)
	assert.Equal(t, sb.BlockSize, layout.BlockSize)
}

func validSuperblock(t *testing.T) Superblock {
	t.Helper()

	layout, err := PlanLayout(32, 256, BlockSize, 1<<21)
	require.NoError(t, err)

	return NewSuperblock(layout, Raid1, 2, 1700000000)
}
