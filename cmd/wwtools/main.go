// SPDX-License-Identifier: EPL-2.0

// Command wwtools converts Wwise audio to standard Ogg Vorbis files.
//
// It accepts .wem files, which convert one-to-one, and .bnk soundbanks,
// whose embedded WEMs are extracted and converted individually. A packed
// codebook library is required for most streams; pass the variant that
// matches the game with -codebooks, or -inline-codebooks for streams
// that embed their own.
//
// Usage:
//
//	wwtools -codebooks packed_codebooks.bin [flags] file.wem [file2.bnk ...]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	wwtools "github.com/tnt-coders/wwise-audio-tools"
	"github.com/tnt-coders/wwise-audio-tools/bnk"
	"github.com/tnt-coders/wwise-audio-tools/codebook"
)

type config struct {
	outDir string
	opts   wwtools.Options
	lib    *codebook.Library
	info   bool
	jobs   int
}

func main() {
	var (
		outDir       = flag.String("out", ".", "output `directory`")
		codebookPath = flag.String("codebooks", "", "packed codebook library `file`")
		inline       = flag.Bool("inline-codebooks", false, "codebooks are embedded in the stream")
		fullSetup    = flag.Bool("full-setup", false, "setup header was never stripped (implies -inline-codebooks)")
		packetFormat = flag.String("packet-format", "auto", "audio packet layout: auto, modified or standard")
		info         = flag.Bool("info", false, "print stream metadata instead of converting")
		validate     = flag.Bool("validate", false, "decode each produced file before writing it")
		jobs         = flag.Int("jobs", runtime.NumCPU(), "max conversions to run at once")
	)
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: wwtools [flags] <file.wem|file.bnk> ...")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config{
		outDir: *outDir,
		opts: wwtools.Options{
			InlineCodebooks: *inline,
			FullSetup:       *fullSetup,
			Validate:        *validate,
		},
		info: *info,
		jobs: max(*jobs, 1),
	}
	switch *packetFormat {
	case "auto":
		cfg.opts.PacketFormat = wwtools.PacketFormatAuto
	case "modified":
		cfg.opts.PacketFormat = wwtools.PacketFormatModified
	case "standard":
		cfg.opts.PacketFormat = wwtools.PacketFormatStandard
	default:
		fmt.Fprintf(os.Stderr, "wwtools: unknown packet format %q\n", *packetFormat)
		os.Exit(2)
	}

	if *codebookPath != "" {
		lib, err := codebook.LoadFile(*codebookPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "wwtools:", err)
			os.Exit(1)
		}
		cfg.lib = lib
	}

	if run(cfg, flag.Args()) != 0 {
		os.Exit(1)
	}
}

// run processes every input and returns the number of failures. Info
// requests run sequentially so their output stays readable; conversions
// run concurrently, bounded by the job limit.
func run(cfg config, paths []string) int {
	if cfg.info {
		var failed int
		for _, path := range paths {
			if err := printInfo(path); err != nil {
				fmt.Fprintf(os.Stderr, "wwtools: %s: %v\n", path, err)
				failed++
			}
		}
		return failed
	}

	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(cfg.jobs)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := processFile(cfg, path); err != nil {
				fmt.Fprintf(os.Stderr, "wwtools: %s: %v\n", path, err)
				failed.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	return int(failed.Load())
}

func processFile(cfg config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".bnk") {
		return convertBank(cfg, path, data)
	}

	out, err := wwtools.ConvertWem(data, cfg.lib, cfg.opts)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".ogg"
	return writeFile(filepath.Join(cfg.outDir, name), out)
}

// convertBank converts every WEM embedded in a soundbank. The outputs
// are named by Wwise short id, the name the game's event metadata uses.
func convertBank(cfg config, path string, data []byte) error {
	sb, err := bnk.Parse(data)
	if err != nil {
		return err
	}
	if len(sb.Entries) == 0 {
		return fmt.Errorf("%s: no embedded files", filepath.Base(path))
	}

	var firstErr error
	for _, e := range sb.Entries {
		out, err := wwtools.ConvertWem(sb.WemData(e), cfg.lib, cfg.opts)
		if err == nil {
			err = writeFile(filepath.Join(cfg.outDir, fmt.Sprintf("%d.ogg", e.ID)), out)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "wwtools: %s: file %d: %v\n", path, e.ID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// writeFile commits data atomically, so an interrupted run never leaves
// a partial .ogg behind.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	fmt.Println("wrote", path)
	return nil
}

func printInfo(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".bnk") {
		sb, err := bnk.Parse(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: soundbank version %d, id %d, %d embedded files\n",
			path, sb.Version, sb.ID, len(sb.Entries))
		for _, e := range sb.Entries {
			fmt.Printf("  %d: %d bytes\n", e.ID, e.Size)
		}
		return nil
	}

	info, err := wwtools.WemInfo(data)
	if err != nil {
		return err
	}
	fmt.Println(path + ":")
	for _, line := range strings.Split(strings.TrimRight(info, "\n"), "\n") {
		fmt.Println("  " + line)
	}
	return nil
}
