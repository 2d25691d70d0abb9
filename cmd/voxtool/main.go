// voxtool is a CLI utility for building, inspecting and querying VXS voxel snapshots.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/voxforge/internal/assets"
	"github.com/Faultbox/voxforge/internal/config"
	"github.com/Faultbox/voxforge/internal/logger"
	"github.com/Faultbox/voxforge/internal/store"
	"github.com/Faultbox/voxforge/pkg/formats"
	"github.com/Faultbox/voxforge/pkg/history"
	"github.com/Faultbox/voxforge/pkg/math"
	"github.com/Faultbox/voxforge/pkg/voxel"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "fill":
		cmdFill(cfg, args)
	case "info":
		cmdInfo(cfg, args)
	case "list", "ls":
		cmdList(cfg)
	case "query", "q":
		cmdQuery(cfg, args)
	case "undo-demo":
		cmdUndoDemo(cfg)
	case "config":
		cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`voxtool - VXS voxel snapshot utility

Usage:
  voxtool [global options] <command> [options]

Commands:
  fill <out.vxs> [-size N] [-layer name]   Build a solid cube and save it
  info <file.vxs>                          Show layers and voxel counts
  list                                     List snapshots in the snapshot dir
  query <file.vxs> x y z [-r radius]       List voxels around a cell
  undo-demo                                Walk through add, undo and redo
  config [path]                            Write the effective config as YAML

Global options:
  -config path       Config file (default ./voxforge.yaml or the user config dir)
  -debug             Enable debug logging
  -log-file path     Also log to a rotating file
  -max-entries N     Spatial index node capacity
  -compress          Compress written snapshots
  -no-compress       Write uncompressed snapshots

Examples:
  voxtool fill cube.vxs -size 8
  voxtool info cube.vxs
  voxtool query cube.vxs 0 0 0 -r 1`)
}

func newStore(cfg *config.Config) *store.Store {
	return store.New(store.Options{Index: cfg.Index.Options()})
}

// snapshotPath resolves relative paths against the configured snapshot directory.
func snapshotPath(cfg *config.Config, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.Snapshot.Dir, path)
}

func newLibrary(cfg *config.Config) *assets.Manager {
	lib := assets.NewManager()
	if err := lib.AddDir(cfg.Snapshot.Dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return lib
}

func loadSnapshot(cfg *config.Config, name string) (*store.Store, *formats.Snapshot) {
	snap, err := newLibrary(cfg).Load(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	st := newStore(cfg)
	if err := st.Restore(snap); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return st, snap
}

func cmdFill(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	size := fs.Int("size", 4, "Cube edge length in voxels")
	layerName := fs.String("layer", "Layer 1", "Layer name")
	fs.Parse(reorder(args))

	if fs.NArg() < 1 || *size < 1 {
		fmt.Fprintln(os.Stderr, "Usage: voxtool fill <out.vxs> [-size N] [-layer name]")
		os.Exit(1)
	}

	st := newStore(cfg)
	layer, err := st.CreateLayer(*layerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	n := int32(*size)
	var specs []store.VoxelSpec
	for x := int32(0); x < n; x++ {
		for y := int32(0); y < n; y++ {
			for z := int32(0); z < n; z++ {
				c := voxel.RGB(uint8(x*255/n), uint8(y*255/n), uint8(z*255/n))
				specs = append(specs, store.Solid(math.Vec3i{X: x, Y: y, Z: z}, c))
			}
		}
	}
	if _, err := st.AddVoxels(layer, specs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out := snapshotPath(cfg, fs.Arg(0))
	if err := formats.WriteVXSFile(out, st.Snapshot(), cfg.Snapshot.Compress); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("snapshot written",
		zap.String("path", out),
		zap.Int("voxels", st.VoxelCount()),
		zap.Bool("compressed", cfg.Snapshot.Compress))
	fmt.Printf("Wrote %d voxels to %s\n", st.VoxelCount(), out)
}

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: voxtool info <file.vxs>")
		os.Exit(1)
	}

	st, snap := loadSnapshot(cfg, args[0])

	fmt.Printf("Snapshot:   %s\n", args[0])
	fmt.Printf("Version:    %s\n", snap.Version)
	fmt.Printf("Document:   %s\n", snap.DocumentID)
	fmt.Printf("Compressed: %v\n", snap.Compressed)
	fmt.Printf("Voxels:     %d\n", st.VoxelCount())
	fmt.Println()
	fmt.Println("Layers (bottom first):")

	for _, l := range st.Layers() {
		visible := "visible"
		if !l.Visible {
			visible = "hidden"
		}
		fmt.Printf("  %-4d %-20s %-8s %d voxels\n", l.ID, l.Name, visible, l.Voxels)
	}
}

func cmdList(cfg *config.Config) {
	lib := newLibrary(cfg)
	names, err := lib.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, name := range names {
		snap, err := lib.Load(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			continue
		}
		fmt.Printf("%-30s %3d layers %8d voxels\n", name, len(snap.Layers), snap.VoxelCount())
	}
	fmt.Fprintf(os.Stderr, "\n(%d snapshots in %s)\n", len(names), cfg.Snapshot.Dir)
}

func cmdQuery(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	radius := fs.Float64("r", 0, "Search radius in cells")
	fs.Parse(reorder(args))

	if fs.NArg() < 4 {
		fmt.Fprintln(os.Stderr, "Usage: voxtool query <file.vxs> x y z [-r radius]")
		os.Exit(1)
	}

	var coords [3]int32
	for i := range coords {
		v, err := strconv.ParseInt(fs.Arg(i+1), 10, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid coordinate %q: %v\n", fs.Arg(i+1), err)
			os.Exit(1)
		}
		coords[i] = int32(v)
	}
	center := math.Vec3i{X: coords[0], Y: coords[1], Z: coords[2]}

	st, _ := loadSnapshot(cfg, fs.Arg(0))

	count := 0
	for _, l := range st.Layers() {
		found, err := st.Search(l.ID, center, *radius)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, v := range found {
			fmt.Printf("%-12s %s  alpha=%-3d rot=%d layer=%s\n", v.Pos, v.Color, v.Alpha, v.Rotation, l.Name)
			count++
		}
	}
	fmt.Fprintf(os.Stderr, "\n(%d voxels within %.1f of %s)\n", count, *radius, center)
}

// reorder moves flags to the front so that "query file 1 2 3 -r 2" parses
// the same as "query -r 2 file 1 2 3". Every subcommand flag takes a value.
func reorder(args []string) []string {
	var flags, rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) > 1 && a[0] == '-' {
			if _, err := strconv.ParseFloat(a, 64); err == nil {
				rest = append(rest, a) // negative coordinate
				continue
			}
			flags = append(flags, a)
			if i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		rest = append(rest, a)
	}
	return append(flags, rest...)
}

func cmdUndoDemo(cfg *config.Config) {
	st := newStore(cfg)
	st.Subscribe(history.ListenerFuncs[store.Intent]{
		Change: func(i store.Intent) {
			if i == nil {
				fmt.Println("  history cleared")
				return
			}
			fmt.Printf("  changed: %s\n", i)
		},
	})

	layer, err := st.CreateLayer("demo")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for x := int32(0); x < 3; x++ {
		if _, err := st.AddVoxel(layer, store.Solid(math.Vec3i{X: x}, voxel.RGB(255, 0, 0))); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	printLayer(st, layer, "after adding three voxels")

	st.Undo()
	printLayer(st, layer, "after undo")

	st.Redo()
	printLayer(st, layer, "after redo")
}

func printLayer(st *store.Store, layer voxel.LayerID, title string) {
	voxels, err := st.Voxels(layer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s:\n", title)
	for _, v := range voxels {
		fmt.Printf("  id=%d %s\n", v.ID, v.Pos)
	}
}

func cmdConfig(cfg *config.Config, args []string) {
	var err error
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if len(args) > 0 {
		path = args[0]
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote config to %s\n", path)
}
