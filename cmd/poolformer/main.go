// Package main provides the PoolFormer command-line tool.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/born-ml/poolformer/backend/cpu"
	"github.com/born-ml/poolformer/poolformer"
)

const version = "v0.1.0-dev"

func main() {
	log.SetFlags(0)
	log.SetPrefix("poolformer: ")

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("PoolFormer %s\n", version)
	case "presets":
		presets()
	case "describe":
		describe(os.Args[2:])
	default:
		usage()
		log.Fatalf("unknown command %q", os.Args[1])
	}
}

func usage() {
	fmt.Println("PoolFormer - MetaFormer backbone with pooling token mixer")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version              Show version")
	fmt.Println("  presets              Print the published model sizes")
	fmt.Println("  describe -preset s12 Build a preset and print its dimensions")
	fmt.Println("")
}

// presets prints the preset table.
func presets() {
	fmt.Println("preset  blocks       widths            layer scale")
	for _, name := range poolformer.Presets() {
		cfg, err := poolformer.PresetConfig(name)
		if err != nil {
			log.Fatalf("preset %s: %v", name, err)
		}
		fmt.Printf("%-7s %d/%d/%-2d/%-4d %3d/%d/%d/%-6d %g\n",
			name,
			cfg.Layers[0], cfg.Layers[1], cfg.Layers[2], cfg.Layers[3],
			cfg.EmbedDims[0], cfg.EmbedDims[1], cfg.EmbedDims[2], cfg.EmbedDims[3],
			cfg.LayerScaleInitValue,
		)
	}
}

// describe constructs a preset on the CPU backend and prints its
// actual dimensions and parameter count.
func describe(args []string) {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	preset := fs.String("preset", "s12", "model size (s12, s24, s36, m36, m48)")
	classes := fs.Int("classes", 0, "override class count (0 keeps the preset's 1000)")
	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}

	cfg, err := poolformer.PresetConfig(poolformer.Preset(*preset))
	if err != nil {
		log.Fatal(err)
	}
	if *classes > 0 {
		cfg.NumClasses = *classes
	}

	backend := cpu.New()
	model, err := poolformer.NewClassifier(cfg, backend)
	if err != nil {
		log.Fatal(err)
	}

	total := 0
	for _, p := range model.Parameters() {
		total += p.Tensor().Shape().NumElements()
	}

	fmt.Printf("poolformer %s\n", *preset)
	fmt.Printf("  blocks:      %d/%d/%d/%d (%d total)\n",
		cfg.Layers[0], cfg.Layers[1], cfg.Layers[2], cfg.Layers[3], cfg.TotalBlocks())
	fmt.Printf("  widths:      %d/%d/%d/%d\n",
		cfg.EmbedDims[0], cfg.EmbedDims[1], cfg.EmbedDims[2], cfg.EmbedDims[3])
	fmt.Printf("  pool size:   %d\n", cfg.PoolSize)
	fmt.Printf("  stem:        %dx%d stride %d pad %d\n", cfg.PatchSize, cfg.PatchSize, cfg.Stride, cfg.Padding)
	fmt.Printf("  classes:     %d\n", cfg.NumClasses)
	fmt.Printf("  layer scale: %g\n", cfg.LayerScaleInitValue)
	fmt.Printf("  parameters:  %d\n", total)
}
