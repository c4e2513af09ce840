package wfs

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

type OutOfRange struct {
	Index    uint64
	MaxIndex uint64
}

func (o OutOfRange) Error() string {
	return fmt.Sprintf("index out of range [%d], maximal index is [%d]", o.Index, o.MaxIndex)
}

// DiskTooSmallError is returned by the layout planner when the computed
// layout does not fit the backing file. It is reported before any metadata
// is written to the disk in question.
type DiskTooSmallError struct {
	Required uint64
	DiskSize int64
}

func (e DiskTooSmallError) Error() string {
	return fmt.Sprintf("disk size %s is too small, the filesystem layout requires %s",
		humanize.IBytes(uint64(e.DiskSize)), humanize.IBytes(e.Required))
}

type BadMagicError struct {
	Found uint32
}

func (e BadMagicError) Error() string {
	return fmt.Sprintf("bad superblock magic 0x%08x, expected 0x%08x", e.Found, Magic)
}

// ShortWriteError reports a write that transferred fewer bytes than
// requested. Any short write aborts the format.
type ShortWriteError struct {
	Offset    VolumePtr
	Written   int
	Requested int
}

func (e ShortWriteError) Error() string {
	return fmt.Sprintf("short write at offset %d: wrote %d of %d bytes", e.Offset, e.Written, e.Requested)
}
