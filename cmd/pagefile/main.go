package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/snowtothemax/CS564-P2/disk"
)

var Info = cli.Command{
	Action:    info,
	Name:      "info",
	Usage:     "prints the header and page accounting of a page file",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&ldbFlag,
	},
}

var BackupCmd = cli.Command{
	Action:    backup,
	Name:      "backup",
	Usage:     "writes a compressed snapshot of a page file",
	ArgsUsage: "<file> <out>",
	Flags: []cli.Flag{
		&ldbFlag,
	},
}

var RestoreCmd = cli.Command{
	Action:    restore,
	Name:      "restore",
	Usage:     "rebuilds a page file from a snapshot",
	ArgsUsage: "<in> <file>",
}

var ldbFlag = cli.BoolFlag{
	Name:  "ldb",
	Usage: "treat <file> as a leveldb backed page store",
}

func main() {
	app := &cli.App{
		Name:  "pagefile",
		Usage: "page file toolbox",
		Commands: []*cli.Command{
			&Info,
			&BackupCmd,
			&RestoreCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func info(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing page file argument")
	}
	path := context.Args().Get(0)

	f, err := openPageFile(context, path)
	if err != nil {
		return err
	}
	defer f.Close()

	live, err := f.LivePageIDs()
	if err != nil {
		return err
	}

	fmt.Printf("Page file %s:\n", path)
	fmt.Printf("\tid:           %s\n", f.ID())
	fmt.Printf("\tpage size:    %d\n", disk.PageSize)
	fmt.Printf("\tlast page id: %d\n", f.LastPageID())
	fmt.Printf("\tlive pages:   %d\n", len(live))
	if file, ok := f.(*disk.File); ok {
		fmt.Printf("\tfree pages:   %v\n", file.FreePageIDs())
	}
	return nil
}

func backup(context *cli.Context) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("expected a page file and an output path")
	}
	path := context.Args().Get(0)
	outPath := context.Args().Get(1)

	f, err := openPageFile(context, path)
	if err != nil {
		return err
	}
	defer f.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := disk.Backup(f, out); err != nil {
		out.Close()
		os.Remove(outPath)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Printf("backed up %s to %s\n", path, outPath)
	return nil
}

func restore(context *cli.Context) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("expected a snapshot and a target path")
	}
	inPath := context.Args().Get(0)
	path := context.Args().Get(1)

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	f, err := disk.Restore(in, path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Printf("restored %s, file id %s, %d pages\n", path, f.ID(), f.LastPageID())
	return nil
}

// openPageFile opens an existing page store of either backend. It refuses
// paths that do not exist instead of silently creating empty stores.
func openPageFile(context *cli.Context, path string) (disk.LivePager, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	if context.Bool(ldbFlag.Name) {
		f, _, err := disk.OpenLdbFile(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	f, _, err := disk.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}
