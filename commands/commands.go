// Package commands implements the inspect shell commands. Every command
// opens the volume the shell was started on, decodes what it needs through
// wfsapi and prints it; nothing here mutates a formatted image except
// Format, which re-formats the whole volume from scratch.
package commands

import (
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/vsustek/wfs/wfs"
	"github.com/vsustek/wfs/wfsapi"
)

var label = color.New(color.FgCyan).SprintFunc()

func openVolume(c *ishell.Context) (*wfs.Volume, bool) {
	path := c.Get("volume_path").(string)
	volume, err := wfs.NewVolume(path)
	if err != nil {
		c.Err(err)
		return nil, false
	}

	return volume, true
}

func Superblock(c *ishell.Context) {
	volume, ok := openVolume(c)
	if !ok {
		return
	}
	defer func() {
		_ = volume.Close()
	}()

	sb, err := wfsapi.ReadSuperblock(volume)
	if err != nil {
		c.Err(err)
		return
	}

	c.Printf("%s 0x%08x\n", label("magic:"), sb.Magic)
	c.Printf("%s %d\n", label("block size:"), sb.BlockSize)
	c.Printf("%s %s\n", label("raid mode:"), wfs.RaidMode(sb.RaidMode))
	c.Printf("%s %d\n", label("disks:"), sb.NumDisks)
	c.Printf("%s %d\n", label("inodes:"), sb.NumInodes)
	c.Printf("%s %d\n", label("data blocks:"), sb.NumDataBlocks)
	c.Printf("%s %d\n", label("inode bitmap at:"), sb.IBitmapPtr)
	c.Printf("%s %d\n", label("data bitmap at:"), sb.DBitmapPtr)
	c.Printf("%s %d\n", label("inode table at:"), sb.IBlocksPtr)
	c.Printf("%s %d\n", label("data region at:"), sb.DBlocksPtr)
	c.Printf("%s %s\n", label("created:"), time.Unix(sb.CreatedAt, 0).Format(time.RFC3339))
}

func Inode(c *ishell.Context) {
	if len(c.Args) != 1 {
		c.Println("usage: inode <number>")
		return
	}

	num, err := strconv.ParseUint(c.Args[0], 10, 32)
	if err != nil {
		c.Err(err)
		return
	}

	volume, ok := openVolume(c)
	if !ok {
		return
	}
	defer func() {
		_ = volume.Close()
	}()

	sb, err := wfsapi.ReadSuperblock(volume)
	if err != nil {
		c.Err(err)
		return
	}

	inode, err := wfsapi.ReadInode(volume, sb, wfs.InodePtr(num))
	if err != nil {
		c.Err(err)
		return
	}

	if inode.IsZero() {
		c.Printf("inode %d is empty\n", num)
		return
	}

	c.Printf("%s %d\n", label("num:"), inode.Num)
	c.Printf("%s %#o\n", label("mode:"), inode.Mode)
	c.Printf("%s %d/%d\n", label("uid/gid:"), inode.UID, inode.GID)
	c.Printf("%s %d\n", label("size:"), inode.Size)
	c.Printf("%s %d\n", label("links:"), inode.Nlinks)
	c.Printf("%s %s\n", label("mtime:"), time.Unix(inode.Mtim, 0).Format(time.RFC3339))
	c.Printf("%s %v\n", label("blocks:"), inode.Blocks)
}

func InodeBitmap(c *ishell.Context) {
	printBitmap(c, wfsapi.ReadInodeBitmap)
}

func DataBitmap(c *ishell.Context) {
	printBitmap(c, wfsapi.ReadDataBitmap)
}

func printBitmap(c *ishell.Context, read func(*wfs.Volume, wfs.Superblock) (wfs.Bitmap, error)) {
	volume, ok := openVolume(c)
	if !ok {
		return
	}
	defer func() {
		_ = volume.Close()
	}()

	sb, err := wfsapi.ReadSuperblock(volume)
	if err != nil {
		c.Err(err)
		return
	}

	bitmap, err := read(volume, sb)
	if err != nil {
		c.Err(err)
		return
	}

	c.Printf("%s %d of %d\n", label("allocated:"), bitmap.CountSet(), bitmap.Len())
	for i := uint64(0); i < bitmap.Len(); i++ {
		set, err := bitmap.IsSet(i)
		if err != nil {
			c.Err(err)
			return
		}

		if set {
			c.Printf("1")
		} else {
			c.Printf("0")
		}

		if (i+1)%64 == 0 {
			c.Printf("\n")
		}
	}
	if bitmap.Len()%64 != 0 {
		c.Printf("\n")
	}
}

func Stat(c *ishell.Context) {
	volume, ok := openVolume(c)
	if !ok {
		return
	}
	defer func() {
		_ = volume.Close()
	}()

	stat, err := wfsapi.ReadStat(volume)
	if err != nil {
		c.Err(err)
		return
	}

	size, err := volume.Size()
	if err != nil {
		c.Err(err)
		return
	}

	c.Printf("%s %s\n", label("volume size:"), humanize.IBytes(uint64(size)))
	c.Printf("%s %s\n", label("layout size:"), humanize.IBytes(stat.Superblock.Layout().RequiredSize()))
	c.Printf("%s %d used, %d free\n", label("inodes:"), stat.UsedInodes, stat.FreeInodes)
	c.Printf("%s %d used, %d free\n", label("data blocks:"), stat.UsedBlocks, stat.FreeBlocks)
}

func Check(c *ishell.Context) {
	volume, ok := openVolume(c)
	if !ok {
		return
	}
	defer func() {
		_ = volume.Close()
	}()

	err := wfsapi.Check(volume)
	if err != nil {
		c.Err(err)
		return
	}

	c.Println(color.GreenString("OK"))
}

// Format re-formats the shell's volume as a standalone single-disk
// filesystem.
func Format(c *ishell.Context) {
	if len(c.Args) != 2 {
		c.Println("usage: format <inodes> <blocks>")
		return
	}

	numInodes, err := strconv.ParseUint(c.Args[0], 10, 64)
	if err != nil {
		c.Err(err)
		return
	}

	numBlocks, err := strconv.ParseUint(c.Args[1], 10, 64)
	if err != nil {
		c.Err(err)
		return
	}

	path := c.Get("volume_path").(string)
	err = wfs.Format(wfs.FormatOptions{
		DiskPaths: []string{path},
		NumInodes: numInodes,
		NumBlocks: numBlocks,
		Raid:      wfs.Raid0,
	})
	if err != nil {
		c.Err(err)
		return
	}

	c.Println(color.GreenString("filesystem initialized"))
}
