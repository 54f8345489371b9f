// Command h5tool inspects and rewrites HDF5 files written by h5support.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dream3d/h5support/config"
)

const helpMessage = `
h5tool inspects and rewrites HDF5 files

Usage: h5tool [options] <command> <file> [args]

      -config =string   TOML settings file (log and storage sections).
      -n      =number   Values printed per dataset or attribute by cat (default 32).
      -v      (flag)    Log at debug level.

Commands:

	ls       <file>                 List groups and datasets with type, shape and storage.
	cat      <file> <object path>   Print a dataset's values and an object's attributes.
	pipeline <file>                 List stored filter pipeline parameters.
	voxel    <file>                 Describe the voxel data container.
	repack   <src> <dst>            Copy every object into a new file using the storage settings.
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	switch {
	case errors.Is(err, errUsage):
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "h5tool: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("h5tool", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, helpMessage) }
	configFile := fs.String("config", "", "")
	limit := fs.Int("n", 32, "")
	verbose := fs.Bool("v", false, "")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *verbose {
		cfg.Log.Mode = "debug"
	}
	restore, err := cfg.Apply()
	if err != nil {
		return err
	}
	defer restore()

	cmd := fs.Args()
	if len(cmd) == 0 {
		fs.Usage()
		return errUsage
	}
	want := map[string]int{"ls": 2, "cat": 3, "pipeline": 2, "voxel": 2, "repack": 3}
	n, ok := want[cmd[0]]
	if !ok || len(cmd) != n {
		fs.Usage()
		return errUsage
	}
	switch cmd[0] {
	case "ls":
		return list(stdout, cmd[1])
	case "cat":
		return cat(stdout, cmd[1], cmd[2], *limit)
	case "pipeline":
		return pipeline(stdout, cmd[1])
	case "voxel":
		return describeVoxel(stdout, cmd[1])
	default:
		return repack(ctx, stdout, cfg, cmd[1], cmd[2])
	}
}
