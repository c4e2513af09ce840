package wfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepareDisk(t *testing.T, name string, size int64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, PrepareVolumeFile(path, size))

	return path
}

func openVolume(t *testing.T, path string) *Volume {
	t.Helper()

	volume, err := NewVolume(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = volume.Close()
	})

	return volume
}

func readBitmap(t *testing.T, v *Volume, ptr uint64, bits uint64) Bitmap {
	t.Helper()

	bitmap := NewBitmap(bits)
	require.NoError(t, v.ReadStruct(VolumePtr(ptr), []uint32(bitmap)))

	return bitmap
}

func TestFormatSingleDisk(t *testing.T) {
	path := prepareDisk(t, "disk.img", 2<<20)

	err := Format(FormatOptions{
		DiskPaths: []string{path},
		NumInodes: 32,
		NumBlocks: 256,
		Raid:      Raid0,
	})
	require.NoError(t, err)

	volume := openVolume(t, path)

	var sb Superblock
	require.NoError(t, volume.ReadStruct(0, &sb))
	require.NoError(t, sb.Validate())

	assert.EqualValues(t, 32, sb.NumInodes)
	assert.EqualValues(t, 256, sb.NumDataBlocks)
	assert.EqualValues(t, 1, sb.NumDisks)
	assert.Greater(t, sb.IBlocksPtr, sb.DBitmapPtr)
	assert.Zero(t, sb.IBlocksPtr%uint64(sb.BlockSize))
	assert.NotZero(t, sb.CreatedAt)
}

func TestFormatBitmapState(t *testing.T) {
	path := prepareDisk(t, "disk.img", 2<<20)

	require.NoError(t, Format(FormatOptions{
		DiskPaths: []string{path},
		NumInodes: 32,
		NumBlocks: 256,
		Raid:      Raid0,
	}))

	volume := openVolume(t, path)

	var sb Superblock
	require.NoError(t, volume.ReadStruct(0, &sb))

	inodeBitmap := readBitmap(t, volume, sb.IBitmapPtr, sb.NumInodes)
	rootSet, err := inodeBitmap.IsSet(0)
	require.NoError(t, err)
	assert.True(t, rootSet, "inode bitmap bit 0 must reserve the root inode")
	assert.EqualValues(t, 1, inodeBitmap.CountSet(), "no inode but the root may be allocated")

	dataBitmap := readBitmap(t, volume, sb.DBitmapPtr, sb.NumDataBlocks)
	assert.Zero(t, dataBitmap.CountSet(), "no data block may be allocated after format")
}

func TestFormatInodeTableState(t *testing.T) {
	path := prepareDisk(t, "disk.img", 2<<20)

	require.NoError(t, Format(FormatOptions{
		DiskPaths: []string{path},
		NumInodes: 32,
		NumBlocks: 256,
		Raid:      Raid0,
	}))

	volume := openVolume(t, path)

	var sb Superblock
	require.NoError(t, volume.ReadStruct(0, &sb))
	layout := sb.Layout()

	var root Inode
	require.NoError(t, volume.ReadStruct(layout.InodeSlotPtr(RootInodePtr), &root))

	assert.True(t, root.IsDirectory())
	assert.EqualValues(t, ModeDirectory|RootInodePerm, root.Mode)
	assert.EqualValues(t, 2, root.Nlinks)
	assert.Zero(t, root.Size)
	assert.Zero(t, root.UID, "a standalone volume records uid 0")
	assert.Zero(t, root.GID)
	assert.NotZero(t, root.Atim)
	assert.Equal(t, root.Atim, root.Mtim)
	for _, ptr := range root.Blocks {
		assert.Zero(t, ptr, "the root directory starts with no blocks")
	}

	for i := uint64(1); i < sb.NumInodes; i++ {
		var inode Inode
		require.NoError(t, volume.ReadStruct(layout.InodeSlotPtr(InodePtr(i)), &inode))
		assert.True(t, inode.IsZero(), "inode slot %d must be zeroed", i)
	}
}

func TestFormatRoundsCounts(t *testing.T) {
	path := prepareDisk(t, "disk.img", 4<<20)

	require.NoError(t, Format(FormatOptions{
		DiskPaths: []string{path},
		NumInodes: 33,
		NumBlocks: 100,
		Raid:      Raid1,
	}))

	volume := openVolume(t, path)

	var sb Superblock
	require.NoError(t, volume.ReadStruct(0, &sb))

	assert.EqualValues(t, 64, sb.NumInodes)
	assert.EqualValues(t, 128, sb.NumDataBlocks)
}

func TestFormatMultiDiskIdenticalMetadata(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("disk%d.img", i))
		require.NoError(t, PrepareVolumeFile(paths[i], 2<<20))
	}

	require.NoError(t, Format(FormatOptions{
		DiskPaths: paths,
		NumInodes: 32,
		NumBlocks: 224,
		Raid:      Raid1,
	}))

	var reference []byte
	for i, path := range paths {
		volume := openVolume(t, path)

		var sb Superblock
		require.NoError(t, volume.ReadStruct(0, &sb))
		assert.EqualValues(t, uint32(Raid1), sb.RaidMode)
		assert.EqualValues(t, len(paths), sb.NumDisks)

		metadata := make([]byte, sb.IBlocksPtr+sb.Layout().InodeTableSize())
		require.NoError(t, volume.ReadBytes(0, metadata))

		if i == 0 {
			reference = metadata
			continue
		}
		assert.Equal(t, reference, metadata, "disk %d metadata must match disk 0", i)
	}
}

func TestFormatMultiDiskRootOwner(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.img"), filepath.Join(dir, "b.img")}
	for _, path := range paths {
		require.NoError(t, PrepareVolumeFile(path, 2<<20))
	}

	require.NoError(t, Format(FormatOptions{
		DiskPaths: paths,
		NumInodes: 32,
		NumBlocks: 32,
		Raid:      Raid0,
	}))

	volume := openVolume(t, paths[0])

	var sb Superblock
	require.NoError(t, volume.ReadStruct(0, &sb))

	var root Inode
	require.NoError(t, volume.ReadStruct(sb.Layout().InodeSlotPtr(RootInodePtr), &root))

	assert.EqualValues(t, os.Getuid(), root.UID)
	assert.EqualValues(t, os.Getgid(), root.GID)
}

func TestFormatDiskTooSmall(t *testing.T) {
	path := prepareDisk(t, "tiny.img", 1024)

	err := Format(FormatOptions{
		DiskPaths: []string{path},
		NumInodes: 1024,
		NumBlocks: 1024,
		Raid:      Raid0,
	})
	require.Error(t, err)

	var sizeErr DiskTooSmallError
	assert.True(t, errors.As(err, &sizeErr), "expected a sizing error, got: %v", err)

	// The plan fails before any metadata write, so the image stays zeroed.
	volume := openVolume(t, path)
	var sb Superblock
	require.NoError(t, volume.ReadStruct(0, &sb))
	assert.Zero(t, sb.Magic)
}

func TestFormatSecondDiskTooSmall(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.img")
	tiny := filepath.Join(dir, "tiny.img")
	require.NoError(t, PrepareVolumeFile(big, 2<<20))
	require.NoError(t, PrepareVolumeFile(tiny, 1024))

	err := Format(FormatOptions{
		DiskPaths: []string{big, tiny},
		NumInodes: 32,
		NumBlocks: 256,
		Raid:      Raid1,
	})
	require.Error(t, err)

	var sizeErr DiskTooSmallError
	assert.True(t, errors.As(err, &sizeErr))

	// Sizing is validated across the whole set before the first superblock
	// goes out, so even the large disk stays untouched.
	volume := openVolume(t, big)
	var sb Superblock
	require.NoError(t, volume.ReadStruct(0, &sb))
	assert.Zero(t, sb.Magic)
}

func TestFormatOptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opts FormatOptions
	}{
		{"no disks", FormatOptions{NumInodes: 32, NumBlocks: 32, Raid: Raid0}},
		{"too many disks", FormatOptions{DiskPaths: make([]string, MaxDisks+1), NumInodes: 32, NumBlocks: 32, Raid: Raid0}},
		{"zero inodes", FormatOptions{DiskPaths: []string{"a"}, NumBlocks: 32, Raid: Raid0}},
		{"zero blocks", FormatOptions{DiskPaths: []string{"a"}, NumInodes: 32, Raid: Raid0}},
		{"bad raid mode", FormatOptions{DiskPaths: []string{"a"}, NumInodes: 32, NumBlocks: 32, Raid: RaidMode(7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Format(tt.opts))
		})
	}
}

func TestParseRaidMode(t *testing.T) {
	mode, err := ParseRaidMode("0")
	require.NoError(t, err)
	assert.Equal(t, Raid0, mode)

	mode, err = ParseRaidMode("1")
	require.NoError(t, err)
	assert.Equal(t, Raid1, mode)

	_, err = ParseRaidMode("2")
	assert.Error(t, err)

	_, err = ParseRaidMode("")
	assert.Error(t, err)
}
