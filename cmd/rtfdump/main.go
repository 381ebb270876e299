// Command rtfdump decodes RTF files and prints their document trees as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/rtftree/core/cache"
	apperrors "github.com/FocuswithJustin/rtftree/core/errors"
	"github.com/FocuswithJustin/rtftree/core/rtf"
	"github.com/FocuswithJustin/rtftree/internal/archive"
	"github.com/FocuswithJustin/rtftree/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for rtfdump.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug shows every diagnostic as it is found)"`
	LogFormat string `name:"log-format" default:"text" enum:"json,text" help:"Log output format"`

	Dump    DumpCmd    `cmd:"" default:"withargs" help:"Decode files and print the document tree as JSON"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// DumpCmd decodes each file and writes one JSON object per file.
type DumpCmd struct {
	Files            []string `arg:"" type:"existingfile" help:"RTF files to decode (.gz and .xz are decompressed, .tar.gz and .tar.xz archives are scanned for .rtf entries)"`
	FallbackCodepage int      `name:"fallback-codepage" default:"1252" help:"Single-byte codepage used for double-byte or unknown runs"`
	KeepFallback     bool     `name:"keep-unicode-fallback" help:"Keep the replacement characters that follow \\u escapes"`
	Stream           bool     `help:"Decode incrementally while reading instead of loading each file"`
	ChunkSize        int      `name:"chunk-size" default:"32768" help:"Read size in bytes for --stream"`
	Indent           bool     `short:"i" help:"Indent JSON output"`
}

// writeError marks output failures, which stop the whole run.
type writeError struct{ err error }

func (e *writeError) Error() string { return "failed to write output: " + e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// result is the JSON record printed for one file.
type result struct {
	Path        string           `json:"path"`
	Digest      string           `json:"digest,omitempty"`
	Document    *rtf.Document    `json:"document,omitempty"`
	Diagnostics []rtf.Diagnostic `json:"diagnostics,omitempty"`
	Error       string           `json:"error,omitempty"`
}

func (c *DumpCmd) Run(ctx *kong.Context) error {
	return c.run(context.Background(), ctx.Stdout)
}

func (c *DumpCmd) config() (rtf.Config, error) {
	cfg := rtf.DefaultConfig()
	cs, ok := rtf.CodepageCharset(c.FallbackCodepage)
	if !ok || !cs.Supported() {
		return cfg, apperrors.NewUnsupported(fmt.Sprintf("fallback codepage %d", c.FallbackCodepage), "not a single-byte codepage")
	}
	cfg.FallbackCharset = cs
	cfg.SkipUnicodeFallback = !c.KeepFallback
	cfg.Logger = logging.GetLogger()
	return cfg, nil
}

func (c *DumpCmd) run(ctx context.Context, w io.Writer) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	docs := cache.NewDocumentCache(cache.DefaultConfig(), cfg)

	enc := json.NewEncoder(w)
	if c.Indent {
		enc.SetIndent("", "  ")
	}

	total, failed := 0, 0
	emit := func(res result) error {
		total++
		if res.Error != "" {
			failed++
		}
		if err := enc.Encode(res); err != nil {
			return &writeError{err}
		}
		return nil
	}

	for _, path := range c.Files {
		if !archive.IsArchive(path) {
			if err := emit(c.decodeFile(ctx, docs, cfg, path)); err != nil {
				return err
			}
			continue
		}

		err := archive.EachRTF(path, func(name string, r io.Reader) error {
			entry := path + ":" + name
			return emit(c.decode(logging.WithSource(ctx, entry), docs, cfg, entry, r))
		})
		if err != nil {
			var we *writeError
			if apperrors.As(err, &we) {
				return err
			}
			logging.ParseFailed(logging.WithSource(ctx, path), err)
			if err := emit(result{Path: path, Error: err.Error()}); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) could not be decoded", failed, total)
	}
	return nil
}

func (c *DumpCmd) decodeFile(ctx context.Context, docs *cache.DocumentCache, cfg rtf.Config, path string) result {
	ctx = logging.WithSource(ctx, path)
	in, err := archive.Open(path)
	if err != nil {
		logging.ParseFailed(ctx, err)
		return result{Path: path, Error: err.Error()}
	}
	defer in.Close()
	return c.decode(ctx, docs, cfg, path, in)
}

func (c *DumpCmd) decode(ctx context.Context, docs *cache.DocumentCache, cfg rtf.Config, path string, in io.Reader) result {
	res := result{Path: path}
	start := time.Now()

	var (
		doc    *rtf.Document
		err    error
		cached bool
	)
	if c.Stream {
		doc, err = rtf.ParseReader(ctx, in, cfg, c.ChunkSize)
	} else {
		var data []byte
		data, err = io.ReadAll(in)
		if err == nil {
			res.Digest = cache.Digest(data)
			doc, cached, err = docs.Load(data)
		}
	}
	if err != nil {
		logging.ParseFailed(ctx, err)
		res.Error = err.Error()
		return res
	}

	for _, d := range doc.Diagnostics() {
		logging.Diagnostic(ctx, string(d.Kind), d.Message, d.Pos.Line, d.Pos.Column)
	}
	logging.DocumentParsed(ctx, len(doc.Paragraphs()), len(doc.Diagnostics()), cached, time.Since(start))

	res.Document = doc
	res.Diagnostics = doc.Diagnostics()
	return res
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx *kong.Context) error {
	fmt.Fprintf(ctx.Stdout, "rtfdump version %s\n", version)
	return nil
}

func initLogging() error {
	level, err := logging.ParseLevel(CLI.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(CLI.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("rtfdump"),
		kong.Description("Decode Rich Text Format files into a document tree"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(initLogging())
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
