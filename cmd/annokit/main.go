// Command annokit edits annotation tracks in Havok animation asset files.
// It dumps annotations to a plain text form, applies edited text back, and
// previews the merged result as XML.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/hkforge/annokit/core/editor"
	"github.com/hkforge/annokit/internal/annocache"
	"github.com/hkforge/annokit/internal/archive"
	"github.com/hkforge/annokit/internal/batch"
	"github.com/hkforge/annokit/internal/config"
	"github.com/hkforge/annokit/internal/fileutil"
	"github.com/hkforge/annokit/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for annokit.
var CLI struct {
	// Global flags
	Config   string `help:"Path to TOML config file" default:"annokit.toml" type:"path"`
	LogLevel string `name:"log-level" help:"Log level: debug, info, warn, error"`
	LogJSON  bool   `name:"log-json" help:"Emit logs as JSON"`
	Workers  int    `help:"Concurrent workers for batch commands (0 = one per CPU)"`
	CacheDB  string `name:"cache-db" help:"Dump cache database path" type:"path"`

	Dump    DumpCmd    `cmd:"" help:"Extract annotation text from asset files"`
	Update  UpdateCmd  `cmd:"" help:"Apply annotation text back into asset files"`
	Preview PreviewCmd `cmd:"" help:"Print the merged asset as XML without writing"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// DumpCmd extracts annotation text from assets.
type DumpCmd struct {
	Paths   []string `arg:"" name:"path" help:"Asset files or directories" type:"path"`
	Out     string   `help:"Write annotation files into this directory instead of next to the assets" type:"path"`
	Archive string   `help:"Also bundle the annotation files into a tar.xz archive" type:"path"`
	Stdout  bool     `help:"Print annotation text to stdout instead of writing files"`
}

func (c *DumpCmd) Run(cfg *config.Config) error {
	opts := batchOptions(cfg)
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		opts.Cache = cache
	}

	files, err := batch.Dump(c.Paths, opts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("no asset files found")
		return nil
	}

	if c.Stdout {
		for _, af := range files {
			fmt.Printf("== %s ==\n%s\n", af.SourcePath, af.Content)
		}
		return nil
	}

	for _, af := range files {
		target := af.AnnoPath
		if c.Out != "" {
			if err := os.MkdirAll(c.Out, 0o755); err != nil {
				return err
			}
			target = filepath.Join(c.Out, af.DisplayName+".txt")
		}
		if err := os.WriteFile(target, []byte(af.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
	}

	if c.Archive != "" {
		entries := make([]archive.Entry, len(files))
		for i, af := range files {
			entries[i] = archive.Entry{Name: af.DisplayName + ".txt", Data: []byte(af.Content)}
		}
		if err := archive.WriteTarXz(c.Archive, entries); err != nil {
			return err
		}
	}

	fmt.Printf("dumped %d file(s)\n", len(files))
	return nil
}

// UpdateCmd applies annotation text back into assets. Without --text, each
// asset reads its sidecar file (the asset path with a .txt extension).
type UpdateCmd struct {
	Paths  []string `arg:"" name:"path" help:"Asset files or directories" type:"path"`
	Format string   `help:"Output format: xml, amd64, or win32 (default from config)"`
	Text   string   `help:"Annotation text file to apply; requires exactly one asset" type:"existingfile"`
}

func (c *UpdateCmd) Run(cfg *config.Config) error {
	opts := batchOptions(cfg)

	format := c.Format
	if format == "" {
		format = cfg.Format
	}

	assets, err := fileutil.CollectAssetFiles(c.Paths)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return fmt.Errorf("no asset files found")
	}
	if c.Text != "" && len(assets) != 1 {
		return fmt.Errorf("--text applies to exactly one asset, got %d", len(assets))
	}

	requests := make([]batch.UpdateRequest, len(assets))
	for i, asset := range assets {
		annoPath := c.Text
		if annoPath == "" {
			annoPath = strings.TrimSuffix(asset, filepath.Ext(asset)) + ".txt"
		}
		text, err := os.ReadFile(annoPath)
		if err != nil {
			return fmt.Errorf("read annotation text for %s: %w", asset, err)
		}
		requests[i] = batch.UpdateRequest{SourcePath: asset, Content: string(text)}
	}

	n, err := batch.Update(requests, format, opts)
	if err != nil {
		return err
	}
	fmt.Printf("updated %d file(s)\n", n)
	return nil
}

// PreviewCmd prints the merged asset as XML.
type PreviewCmd struct {
	Input string `arg:"" help:"Asset file" type:"existingfile"`
	Text  string `arg:"" help:"Annotation text file" type:"existingfile"`
}

func (c *PreviewCmd) Run(cfg *config.Config) error {
	text, err := os.ReadFile(c.Text)
	if err != nil {
		return err
	}
	xml, err := editor.PreviewXML(c.Input, string(text))
	if err != nil {
		return err
	}
	fmt.Print(xml)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cfg *config.Config) error {
	fmt.Printf("annokit version %s\n", version)
	return nil
}

// batchOptions merges config defaults with global flags.
func batchOptions(cfg *config.Config) batch.Options {
	opts := batch.Options{Workers: cfg.Workers}
	if CLI.Workers > 0 {
		opts.Workers = CLI.Workers
	}
	return opts
}

// openCache opens the dump cache named by flag or config. Returns nil when
// no cache path is configured; the caller owns closing it.
func openCache(cfg *config.Config) (*annocache.Cache, error) {
	cachePath := cfg.CachePath
	if CLI.CacheDB != "" {
		cachePath = CLI.CacheDB
	}
	if cachePath == "" {
		return nil, nil
	}
	return annocache.Open(cachePath)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("annokit"),
		kong.Description("Havok animation annotation toolkit"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cfg, err := config.Load(CLI.Config)
	ctx.FatalIfErrorf(err)

	level := CLI.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	format := logging.FormatText
	if CLI.LogJSON {
		format = logging.FormatJSON
	}
	logging.InitLogger(logging.ParseLevel(level), format)

	err = ctx.Run(&cfg)
	ctx.FatalIfErrorf(err)
}
