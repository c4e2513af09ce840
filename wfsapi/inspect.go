// Package wfsapi reads formatted volumes back: superblock, inode and bitmap
// decoding plus the consistency checks the formatter's output must satisfy.
// It never writes; all mutation after format time belongs to the runtime
// driver.
package wfsapi

import (
	"fmt"

	"github.com/vsustek/wfs/wfs"
)

// ReadSuperblock decodes and validates the superblock at offset 0.
func ReadSuperblock(volume *wfs.Volume) (wfs.Superblock, error) {
	var sb wfs.Superblock
	err := volume.ReadStruct(0, &sb)
	if err != nil {
		return wfs.Superblock{}, err
	}

	err = sb.Validate()
	if err != nil {
		return wfs.Superblock{}, err
	}

	return sb, nil
}

// ReadInode decodes the inode record in table slot ptr.
func ReadInode(volume *wfs.Volume, sb wfs.Superblock, ptr wfs.InodePtr) (wfs.Inode, error) {
	if uint64(ptr) >= sb.NumInodes {
		return wfs.Inode{}, wfs.OutOfRange{Index: uint64(ptr), MaxIndex: sb.NumInodes - 1}
	}

	var inode wfs.Inode
	err := volume.ReadStruct(sb.Layout().InodeSlotPtr(ptr), &inode)
	if err != nil {
		return wfs.Inode{}, err
	}

	return inode, nil
}

// ReadInodeBitmap reads the whole inode bitmap region.
func ReadInodeBitmap(volume *wfs.Volume, sb wfs.Superblock) (wfs.Bitmap, error) {
	return readBitmap(volume, wfs.VolumePtr(sb.IBitmapPtr), sb.NumInodes)
}

// ReadDataBitmap reads the whole data bitmap region.
func ReadDataBitmap(volume *wfs.Volume, sb wfs.Superblock) (wfs.Bitmap, error) {
	return readBitmap(volume, wfs.VolumePtr(sb.DBitmapPtr), sb.NumDataBlocks)
}

func readBitmap(volume *wfs.Volume, ptr wfs.VolumePtr, bitCount uint64) (wfs.Bitmap, error) {
	bitmap := wfs.NewBitmap(bitCount)
	err := volume.ReadStruct(ptr, []uint32(bitmap))
	if err != nil {
		return nil, err
	}

	return bitmap, nil
}

// Stat summarizes a formatted volume for the inspect shell.
type Stat struct {
	Superblock wfs.Superblock
	UsedInodes uint64
	FreeInodes uint64
	UsedBlocks uint64
	FreeBlocks uint64
}

func ReadStat(volume *wfs.Volume) (Stat, error) {
	sb, err := ReadSuperblock(volume)
	if err != nil {
		return Stat{}, err
	}

	inodeBitmap, err := ReadInodeBitmap(volume, sb)
	if err != nil {
		return Stat{}, fmt.Errorf("failed to read inode bitmap: %w", err)
	}

	dataBitmap, err := ReadDataBitmap(volume, sb)
	if err != nil {
		return Stat{}, fmt.Errorf("failed to read data bitmap: %w", err)
	}

	usedInodes := inodeBitmap.CountSet()
	usedBlocks := dataBitmap.CountSet()

	return Stat{
		Superblock: sb,
		UsedInodes: usedInodes,
		FreeInodes: sb.NumInodes - usedInodes,
		UsedBlocks: usedBlocks,
		FreeBlocks: sb.NumDataBlocks - usedBlocks,
	}, nil
}
