package wfs

import "fmt"

// CountAlignment is the alignment of the inode and data block counts. Both
// are rounded up to a multiple of 32 so the bitmaps always end on a full
// word with no partial trailing word.
const CountAlignment = 32

// Layout describes the byte offsets and sizes of every filesystem region on
// one disk. It is the single source of truth for the on-disk format; the
// runtime driver reads the same offsets back out of the superblock.
type Layout struct {
	NumInodes     uint64
	NumDataBlocks uint64
	IBitmapPtr    uint64
	DBitmapPtr    uint64
	IBlocksPtr    uint64
	DBlocksPtr    uint64
	BlockSize     uint32
}

// PlanLayout computes the region layout for the given counts and validates
// that it fits within diskSize bytes. It is a pure computation with no side
// effects. Counts are rounded up to CountAlignment first, so planning with an
// already-rounded count yields the same layout.
//
// Regions are laid out back-to-back: superblock, inode bitmap, data bitmap,
// then the inode table and data region each rounded up to a block boundary.
// The bitmaps deliberately are not block-aligned; only block-addressed
// regions need to be.
func PlanLayout(numInodes, numBlocks uint64, blockSize uint32, diskSize int64) (Layout, error) {
	if numInodes == 0 {
		return Layout{}, fmt.Errorf("inode count must be positive")
	}
	if numBlocks == 0 {
		return Layout{}, fmt.Errorf("data block count must be positive")
	}
	if blockSize < InodeSize {
		return Layout{}, fmt.Errorf("block size %d is smaller than one inode record (%d bytes)", blockSize, InodeSize)
	}

	numInodes = alignUp(numInodes, CountAlignment)
	numBlocks = alignUp(numBlocks, CountAlignment)

	l := Layout{
		NumInodes:     numInodes,
		NumDataBlocks: numBlocks,
		BlockSize:     blockSize,
	}

	bs := uint64(blockSize)
	l.IBitmapPtr = SuperblockSize
	l.DBitmapPtr = l.IBitmapPtr + BitmapByteSize(numInodes)
	l.IBlocksPtr = alignUp(l.DBitmapPtr+BitmapByteSize(numBlocks), bs)
	l.DBlocksPtr = alignUp(l.IBlocksPtr+numInodes*bs, bs)

	if l.RequiredSize() > uint64(diskSize) {
		return Layout{}, DiskTooSmallError{Required: l.RequiredSize(), DiskSize: diskSize}
	}

	return l, nil
}

// RequiredSize returns the minimal backing file size the layout needs.
func (l Layout) RequiredSize() uint64 {
	return l.DBlocksPtr + l.NumDataBlocks*uint64(l.BlockSize)
}

// InodeBitmapSize returns the inode bitmap region size in bytes.
func (l Layout) InodeBitmapSize() uint64 {
	return BitmapByteSize(l.NumInodes)
}

// DataBitmapSize returns the data bitmap region size in bytes.
func (l Layout) DataBitmapSize() uint64 {
	return BitmapByteSize(l.NumDataBlocks)
}

// InodeTableSize returns the inode table region size in bytes, one
// block-sized slot per inode.
func (l Layout) InodeTableSize() uint64 {
	return l.NumInodes * uint64(l.BlockSize)
}

// InodeSlotPtr returns the byte offset of the given inode's table slot.
func (l Layout) InodeSlotPtr(ptr InodePtr) VolumePtr {
	return VolumePtr(l.IBlocksPtr + uint64(ptr)*uint64(l.BlockSize))
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) / align * align
}
