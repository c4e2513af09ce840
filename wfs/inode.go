package wfs

import "time"

// InodeSize is the encoded size of one inode record. Records are stored one
// per block-sized slot in the inode table, so the slot stride is BlockSize,
// not InodeSize.
const InodeSize = 116

const (
	// NumBlockPtrs is the length of the per-inode block pointer array:
	// indices 0 through IndirectBlock-1 are direct, IndirectBlock is the
	// single indirect pointer slot.
	NumBlockPtrs  = 8
	IndirectBlock = 7
)

const (
	ModeDirectory = 0o040000
	ModeRegular   = 0o100000

	RootInodePerm = 0o755
)

// RootInodePtr is the reserved inode number of the root directory.
const RootInodePtr InodePtr = 0

type InodePtr uint32

type Inode struct {
	Num    uint32
	Mode   uint32
	UID    uint32
	GID    uint32
	Size   uint64
	Nlinks uint32
	Atim   int64
	Mtim   int64
	Ctim   int64
	Blocks [NumBlockPtrs]uint64
}

// NewRootInode builds inode 0: an empty directory with link count 2 (itself
// and its own parent entry). Its directory content is populated by the
// runtime driver on first use, never by the formatter.
func NewRootInode(uid, gid uint32, now time.Time) Inode {
	t := now.Unix()
	return Inode{
		Num:    uint32(RootInodePtr),
		Mode:   ModeDirectory | RootInodePerm,
		UID:    uid,
		GID:    gid,
		Size:   0,
		Nlinks: 2,
		Atim:   t,
		Mtim:   t,
		Ctim:   t,
	}
}

func (i Inode) IsDirectory() bool {
	return i.Mode&ModeDirectory == ModeDirectory
}

// IsZero reports whether the record is all zeroes, the state of every
// unallocated inode table slot. The bitmap, not the record content, is
// authoritative for allocation.
func (i Inode) IsZero() bool {
	return i == Inode{}
}
