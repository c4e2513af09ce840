package wfsapi

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vsustek/wfs/wfs"
)

// Check verifies that a volume carries a consistent freshly-formatted
// filesystem: a valid superblock that fits the backing file, agreement
// between the inode bitmap and the inode table (the bitmap is authoritative
// for allocation), and a root directory inode of the expected shape.
func Check(volume *wfs.Volume) error {
	sb, err := ReadSuperblock(volume)
	if err != nil {
		return err
	}

	size, err := volume.Size()
	if err != nil {
		return err
	}

	if sb.Layout().RequiredSize() > uint64(size) {
		return fmt.Errorf("superblock layout exceeds the volume: %w",
			wfs.DiskTooSmallError{Required: sb.Layout().RequiredSize(), DiskSize: size})
	}

	inodeBitmap, err := ReadInodeBitmap(volume, sb)
	if err != nil {
		return err
	}

	rootAllocated, err := inodeBitmap.IsSet(uint64(wfs.RootInodePtr))
	if err != nil {
		return err
	}
	if !rootAllocated {
		return errors.New("root inode is not allocated in the inode bitmap")
	}

	for i := uint64(0); i < sb.NumInodes; i++ {
		allocated, err := inodeBitmap.IsSet(i)
		if err != nil {
			return err
		}

		inode, err := ReadInode(volume, sb, wfs.InodePtr(i))
		if err != nil {
			return err
		}

		if allocated && inode.IsZero() {
			return fmt.Errorf("inode %d is allocated in the bitmap but its table slot is empty", i)
		}
		if !allocated && !inode.IsZero() {
			return fmt.Errorf("found zombie inode %d that is not allocated in the bitmap", i)
		}
	}

	root, err := ReadInode(volume, sb, wfs.RootInodePtr)
	if err != nil {
		return err
	}

	if !root.IsDirectory() {
		return errors.New("root inode is not a directory")
	}
	if root.Nlinks != 2 {
		return fmt.Errorf("root inode has link count %d, expected 2", root.Nlinks)
	}
	for _, ptr := range root.Blocks {
		if ptr != 0 {
			return errors.New("root inode has a non-zero block pointer")
		}
	}

	return nil
}

// CheckSet verifies that every disk of a set carries byte-identical
// metadata: the superblock, both bitmaps and the whole inode table. The
// first volume is the reference.
func CheckSet(volumes []*wfs.Volume) error {
	if len(volumes) < 2 {
		return errors.New("a disk set consists of at least 2 disks")
	}

	reference, err := readMetadataRegions(volumes[0])
	if err != nil {
		return err
	}

	for _, v := range volumes[1:] {
		regions, err := readMetadataRegions(v)
		if err != nil {
			return err
		}

		if !bytes.Equal(regions, reference) {
			return fmt.Errorf("metadata on %s diverges from %s", v.Name(), volumes[0].Name())
		}
	}

	return nil
}

// readMetadataRegions reads everything from the superblock up to the end of
// the inode table as raw bytes.
func readMetadataRegions(volume *wfs.Volume) ([]byte, error) {
	sb, err := ReadSuperblock(volume)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", volume.Name(), err)
	}

	layout := sb.Layout()
	data := make([]byte, layout.IBlocksPtr+layout.InodeTableSize())
	err = volume.ReadBytes(0, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", volume.Name(), err)
	}

	return data, nil
}
