package wfs

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type RaidMode uint32

const (
	Raid0 RaidMode = 0 // striping
	Raid1 RaidMode = 1 // mirroring
)

func ParseRaidMode(s string) (RaidMode, error) {
	switch s {
	case "0":
		return Raid0, nil
	case "1":
		return Raid1, nil
	default:
		return 0, fmt.Errorf("invalid RAID mode %q, supported modes are 0 (striping) and 1 (mirroring)", s)
	}
}

func (m RaidMode) String() string {
	switch m {
	case Raid0:
		return "0 (striping)"
	case Raid1:
		return "1 (mirroring)"
	default:
		return fmt.Sprintf("unknown (%d)", uint32(m))
	}
}

// FormatOptions configures one format run. A single disk path is the
// degenerate case of a disk set; block placement across the set is a runtime
// driver concern, so the raid mode only has to be recorded in the superblock.
type FormatOptions struct {
	DiskPaths []string
	NumInodes uint64
	NumBlocks uint64
	Raid      RaidMode

	// BlockSize defaults to BlockSize when zero.
	BlockSize uint32
}

func (o FormatOptions) validate() error {
	if len(o.DiskPaths) == 0 {
		return fmt.Errorf("at least one disk file is required")
	}
	if len(o.DiskPaths) > MaxDisks {
		return fmt.Errorf("too many disks specified (%d), the format supports at most %d", len(o.DiskPaths), MaxDisks)
	}
	if o.NumInodes == 0 {
		return fmt.Errorf("inode count must be positive")
	}
	if o.NumBlocks == 0 {
		return fmt.Errorf("data block count must be positive")
	}
	if o.Raid != Raid0 && o.Raid != Raid1 {
		return fmt.Errorf("invalid RAID mode %d", uint32(o.Raid))
	}
	return nil
}

// Format initializes every disk in the set with identical filesystem
// metadata: superblock, inode bitmap, data bitmap and inode table per disk,
// then the root inode across the whole set. Any failure aborts the run and
// leaves already-written disks in whatever partial state they reached; a
// failed format is retried from scratch, never resumed.
func Format(opts FormatOptions) (err error) {
	if err := opts.validate(); err != nil {
		return err
	}

	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = BlockSize
	}

	volumes := make([]*Volume, 0, len(opts.DiskPaths))
	defer func() {
		for _, v := range volumes {
			err = multierr.Append(err, v.Close())
		}
	}()

	for _, path := range opts.DiskPaths {
		v, err := NewVolume(path)
		if err != nil {
			return fmt.Errorf("failed to open disk image: %w", err)
		}
		volumes = append(volumes, v)
	}

	var layout Layout
	for i, v := range volumes {
		size, err := v.Size()
		if err != nil {
			return fmt.Errorf("%s: failed to get disk size: %w", v.Name(), err)
		}

		// The layout depends only on the counts and block size, so every
		// disk that passes the size validation gets an identical plan.
		l, err := PlanLayout(opts.NumInodes, opts.NumBlocks, blockSize, size)
		if err != nil {
			return fmt.Errorf("%s: %w", v.Name(), err)
		}
		if i == 0 {
			layout = l
		}
	}

	sb := NewSuperblock(layout, opts.Raid, len(volumes), time.Now().Unix())

	for _, v := range volumes {
		if err := writeMetadata(v, sb, layout); err != nil {
			return err
		}
	}

	uid, gid := rootOwner(len(volumes))
	if err := writeRootInode(volumes, layout, uid, gid); err != nil {
		return err
	}

	for _, v := range volumes {
		if err := v.Sync(); err != nil {
			return fmt.Errorf("%s: failed to sync disk image: %w", v.Name(), err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"disks":  len(volumes),
		"raid":   opts.Raid.String(),
		"inodes": layout.NumInodes,
		"blocks": layout.NumDataBlocks,
	}).Info("filesystem initialized")

	return nil
}

// writeMetadata writes the per-disk regions in layout order: superblock,
// inode bitmap, data bitmap, inode table.
func writeMetadata(v *Volume, sb Superblock, layout Layout) error {
	if err := v.WriteStruct(0, sb); err != nil {
		return fmt.Errorf("%s: failed to write superblock: %w", v.Name(), err)
	}

	if err := initBitmap(v, VolumePtr(layout.IBitmapPtr), layout.NumInodes, false); err != nil {
		return fmt.Errorf("%s: failed to write inode bitmap: %w", v.Name(), err)
	}

	if err := initBitmap(v, VolumePtr(layout.DBitmapPtr), layout.NumDataBlocks, false); err != nil {
		return fmt.Errorf("%s: failed to write data bitmap: %w", v.Name(), err)
	}

	if err := initInodeTable(v, layout); err != nil {
		return fmt.Errorf("%s: failed to write inode table: %w", v.Name(), err)
	}

	logrus.WithField("disk", v.Name()).Debug("metadata regions written")

	return nil
}

// initBitmap writes a zeroed bitmap of bitCount bits as one contiguous write
// at the given offset. With preallocateFirst, bit 0 is set before writing;
// only the inode bitmap ever uses that, to reserve inode 0 for the root
// directory.
func initBitmap(v *Volume, ptr VolumePtr, bitCount uint64, preallocateFirst bool) error {
	bitmap := NewBitmap(bitCount)
	if preallocateFirst {
		if err := bitmap.Set(0); err != nil {
			return err
		}
	}

	return v.WriteStruct(ptr, []uint32(bitmap))
}

// initInodeTable writes one zeroed inode record per block-sized slot.
func initInodeTable(v *Volume, layout Layout) error {
	for i := uint64(0); i < layout.NumInodes; i++ {
		err := v.WriteStruct(layout.InodeSlotPtr(InodePtr(i)), Inode{})
		if err != nil {
			return err
		}
	}

	return nil
}

// writeRootInode writes the identical root inode record to slot 0 on every
// disk, then marks inode 0 allocated in every disk's inode bitmap. This is
// the only cross-disk step; a failure on any disk fails the whole format.
func writeRootInode(volumes []*Volume, layout Layout, uid, gid uint32) error {
	root := NewRootInode(uid, gid, time.Now())

	for _, v := range volumes {
		if err := v.WriteStruct(layout.InodeSlotPtr(RootInodePtr), root); err != nil {
			return fmt.Errorf("%s: failed to write root inode: %w", v.Name(), err)
		}
	}

	for _, v := range volumes {
		if err := v.WriteStruct(VolumePtr(layout.IBitmapPtr), uint32(1)); err != nil {
			return fmt.Errorf("%s: failed to mark root inode allocated: %w", v.Name(), err)
		}
	}

	logrus.WithField("disks", len(volumes)).Debug("root inode written")

	return nil
}

// rootOwner returns the uid/gid recorded in the root inode: the invoking
// process for a disk set, 0 for a standalone volume.
func rootOwner(numDisks int) (uint32, uint32) {
	if numDisks < 2 {
		return 0, 0
	}
	return uint32(os.Getuid()), uint32(os.Getgid())
}
