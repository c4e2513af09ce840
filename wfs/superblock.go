package wfs

import "fmt"

// Magic reads as "WFS1" in the first four bytes of a formatted image.
const Magic uint32 = 0x31534657

const (
	BlockSize      = 512
	SuperblockSize = 72
	MaxDisks       = 32
)

// Superblock is the fixed-size record at byte offset 0 of every disk in a
// set. All fields are fixed-width and serialized little-endian with no
// padding, so the encoded form is exactly SuperblockSize bytes and identical
// on every platform.
type Superblock struct {
	Magic         uint32
	BlockSize     uint32
	RaidMode      uint32
	NumDisks      uint32
	NumInodes     uint64
	NumDataBlocks uint64
	IBitmapPtr    uint64
	DBitmapPtr    uint64
	IBlocksPtr    uint64
	DBlocksPtr    uint64
	CreatedAt     int64
}

func NewSuperblock(layout Layout, raid RaidMode, numDisks int, createdAt int64) Superblock {
	return Superblock{
		Magic:         Magic,
		BlockSize:     layout.BlockSize,
		RaidMode:      uint32(raid),
		NumDisks:      uint32(numDisks),
		NumInodes:     layout.NumInodes,
		NumDataBlocks: layout.NumDataBlocks,
		IBitmapPtr:    layout.IBitmapPtr,
		DBitmapPtr:    layout.DBitmapPtr,
		IBlocksPtr:    layout.IBlocksPtr,
		DBlocksPtr:    layout.DBlocksPtr,
		CreatedAt:     createdAt,
	}
}

// Layout returns the region layout recorded in the superblock.
func (s Superblock) Layout() Layout {
	return Layout{
		NumInodes:     s.NumInodes,
		NumDataBlocks: s.NumDataBlocks,
		IBitmapPtr:    s.IBitmapPtr,
		DBitmapPtr:    s.DBitmapPtr,
		IBlocksPtr:    s.IBlocksPtr,
		DBlocksPtr:    s.DBlocksPtr,
		BlockSize:     s.BlockSize,
	}
}

// Validate checks the structural invariants of a superblock: magic, count
// alignment, and strictly increasing region offsets with the inode table and
// data region on block boundaries.
func (s Superblock) Validate() error {
	if s.Magic != Magic {
		return BadMagicError{Found: s.Magic}
	}
	if s.BlockSize == 0 {
		return fmt.Errorf("superblock has zero block size")
	}
	if s.NumInodes == 0 || s.NumInodes%CountAlignment != 0 {
		return fmt.Errorf("inode count %d is not a positive multiple of %d", s.NumInodes, CountAlignment)
	}
	if s.NumDataBlocks == 0 || s.NumDataBlocks%CountAlignment != 0 {
		return fmt.Errorf("data block count %d is not a positive multiple of %d", s.NumDataBlocks, CountAlignment)
	}
	if s.IBitmapPtr != SuperblockSize {
		return fmt.Errorf("inode bitmap offset %d does not follow the superblock", s.IBitmapPtr)
	}
	if s.DBitmapPtr <= s.IBitmapPtr {
		return fmt.Errorf("data bitmap offset %d does not follow the inode bitmap", s.DBitmapPtr)
	}
	if s.IBlocksPtr <= s.DBitmapPtr || s.IBlocksPtr%uint64(s.BlockSize) != 0 {
		return fmt.Errorf("inode table offset %d is not a block-aligned offset past the data bitmap", s.IBlocksPtr)
	}
	if s.DBlocksPtr <= s.IBlocksPtr || s.DBlocksPtr%uint64(s.BlockSize) != 0 {
		return fmt.Errorf("data region offset %d is not a block-aligned offset past the inode table", s.DBlocksPtr)
	}
	if s.DBlocksPtr < s.IBlocksPtr+s.NumInodes*uint64(s.BlockSize) {
		return fmt.Errorf("data region offset %d overlaps the inode table", s.DBlocksPtr)
	}
	return nil
}
