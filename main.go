package main

import (
	"fmt"
	"os"

	"github.com/abiosoft/ishell"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vsustek/wfs/commands"
	"github.com/vsustek/wfs/wfs"
)

var (
	raidMode  string
	diskPaths []string
	numInodes uint64
	numBlocks uint64
	verbose   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wfs",
		Short: "Format disk images with the WFS on-disk layout",
		Long: `wfs writes the WFS filesystem metadata (superblock, bitmaps, inode table
and root inode) identically to every disk image of a set. Block placement
across the set is left to the runtime driver; the chosen RAID mode is only
recorded in the superblock.`,
		SilenceUsage: true,
		RunE:         runFormat,
	}

	rootCmd.Flags().StringVarP(&raidMode, "raid", "r", "", "RAID mode, 0 (striping) or 1 (mirroring)")
	rootCmd.Flags().StringArrayVarP(&diskPaths, "disk", "d", nil, "disk image file, repeat for every disk of the set")
	rootCmd.Flags().Uint64VarP(&numInodes, "inodes", "i", 0, "number of inodes")
	rootCmd.Flags().Uint64VarP(&numBlocks, "blocks", "b", 0, "number of data blocks")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	for _, flag := range []string{"raid", "disk", "inodes", "blocks"} {
		if err := rootCmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "inspect <image>",
		Short: "Open an interactive shell over a formatted disk image",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runFormat(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	raid, err := wfs.ParseRaidMode(raidMode)
	if err != nil {
		return err
	}

	if len(diskPaths) < 2 {
		return fmt.Errorf("at least 2 disk files are required, got %d", len(diskPaths))
	}

	err = wfs.Format(wfs.FormatOptions{
		DiskPaths: diskPaths,
		NumInodes: numInodes,
		NumBlocks: numBlocks,
		Raid:      raid,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Filesystem successfully initialized with RAID mode %s on %d disks.\n", raid, len(diskPaths))

	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return err
	}

	shell := ishell.New()
	shell.SetPrompt(path + " > ")
	shell.Set("volume_path", path)

	shell.AddCmd(&ishell.Cmd{
		Name: "sb",
		Help: "print the superblock",
		Func: commands.Superblock,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "inode",
		Help: "inode <number>: print one inode table slot",
		Func: commands.Inode,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "ibmap",
		Help: "print the inode bitmap",
		Func: commands.InodeBitmap,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "dbmap",
		Help: "print the data bitmap",
		Func: commands.DataBitmap,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stat",
		Help: "print usage summary",
		Func: commands.Stat,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "check",
		Help: "verify filesystem consistency",
		Func: commands.Check,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "format",
		Help: "format <inodes> <blocks>: re-format this volume as a single-disk filesystem",
		Func: commands.Format,
	})

	shell.Run()

	return nil
}
