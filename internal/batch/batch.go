// Package batch runs annotation dumps and updates over many asset files
// concurrently. Dump is best effort: one unreadable file must not sink a
// five-hundred-file mod folder. Update is strict: a partially applied batch
// is reported as a failure even though completed writes stay on disk.
package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hkforge/annokit/core/editor"
	"github.com/hkforge/annokit/core/errors"
	"github.com/hkforge/annokit/core/hkx"
	"github.com/hkforge/annokit/internal/annocache"
	"github.com/hkforge/annokit/internal/fileutil"
	"github.com/hkforge/annokit/internal/logging"
)

// Options controls a batch run.
type Options struct {
	// Workers bounds concurrency. Zero or less means one worker per CPU.
	Workers int

	// Cache, when set, short-circuits dumps of unchanged assets.
	Cache *annocache.Cache

	// Logger receives per-file progress and failures. Defaults to the
	// process logger.
	Logger *slog.Logger
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.GetLogger()
}

// AnnotationFile is one dumped asset.
type AnnotationFile struct {
	// SourcePath is the asset file the annotations came from.
	SourcePath string

	// AnnoPath is the conventional sidecar path for the annotation text,
	// the source path with a .txt extension.
	AnnoPath string

	// DisplayName is the asset name without directory or extension.
	DisplayName string

	// Content is the canonical annotation text.
	Content string

	// SourceHash is the BLAKE3 digest of the asset bytes.
	SourceHash string
}

// UpdateRequest pairs an asset file with the annotation text to apply.
type UpdateRequest struct {
	SourcePath string
	Content    string
}

// Dump extracts annotation text from every asset file under paths. Results
// come back in the deterministic order file discovery produced, regardless
// of completion order.
//
// Partial failure is tolerated: if any file succeeds, the successes are
// returned and the failures only logged. The run errors out when every
// file failed.
func Dump(paths []string, opts Options) ([]AnnotationFile, error) {
	files, err := fileutil.CollectAssetFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	runID := uuid.NewString()
	log := opts.logger().With("run_id", runID, "op", "dump", "files", len(files))
	log.Info("batch started", "workers", opts.workers())

	results := make([]*AnnotationFile, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(opts.workers())
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			errs[i] = runTask(path, func() error {
				af, err := dumpOne(path, opts)
				if err != nil {
					return err
				}
				results[i] = af
				return nil
			})
			return nil
		})
	}
	g.Wait()

	var out []AnnotationFile
	var failed []taskError
	for i := range files {
		if errs[i] != nil {
			failed = append(failed, taskError{files[i], errs[i]})
			continue
		}
		out = append(out, *results[i])
	}

	if len(out) == 0 && len(failed) > 0 {
		return nil, aggregate("dump", len(files), failed)
	}
	for _, f := range failed {
		log.Error("file failed", "path", f.path, "error", f.err)
	}
	log.Info("batch finished", "succeeded", len(out), "failed", len(failed))
	return out, nil
}

func dumpOne(path string, opts Options) (*AnnotationFile, error) {
	data, err := readAsset(path)
	if err != nil {
		return nil, err
	}
	hash := editor.SourceDigest(data)

	af := &AnnotationFile{
		SourcePath:  path,
		AnnoPath:    replaceExt(path, ".txt"),
		DisplayName: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		SourceHash:  hash,
	}

	if opts.Cache != nil {
		if content, ok, err := opts.Cache.Get(path, hash); err == nil && ok {
			af.Content = content
			return af, nil
		}
	}

	content, err := editor.ReadAnnotationsBytes(data, path)
	if err != nil {
		return nil, err
	}
	af.Content = content

	if opts.Cache != nil {
		if err := opts.Cache.Put(path, hash, content); err != nil {
			opts.logger().Warn("cache store failed", "path", path, "error", err)
		}
	}
	return af, nil
}

// Update applies each request's annotation text to its asset, serializing to
// the named output format. The output path is the source path with the
// format's extension, so an update can convert in passing.
//
// Unlike Dump, any failure makes the whole run an error; the returned count
// still says how many files were written before or alongside the failure.
func Update(requests []UpdateRequest, format string, opts Options) (int, error) {
	// Validate the target format before the first file is touched.
	outFormat, err := hkx.ParseOutFormat(format)
	if err != nil {
		return 0, err
	}
	if len(requests) == 0 {
		return 0, nil
	}

	runID := uuid.NewString()
	log := opts.logger().With("run_id", runID, "op", "update", "files", len(requests))
	log.Info("batch started", "workers", opts.workers(), "format", outFormat.String())

	errs := make([]error, len(requests))
	var succeeded atomic.Int64

	var g errgroup.Group
	g.SetLimit(opts.workers())
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			errs[i] = runTask(req.SourcePath, func() error {
				output := replaceExt(req.SourcePath, outFormat.Extension())
				if err := editor.ApplyAnnotations(req.SourcePath, output, req.Content, outFormat); err != nil {
					return err
				}
				succeeded.Add(1)
				return nil
			})
			return nil
		})
	}
	g.Wait()

	var failed []taskError
	for i, req := range requests {
		if errs[i] != nil {
			failed = append(failed, taskError{req.SourcePath, errs[i]})
		}
	}

	n := int(succeeded.Load())
	if len(failed) > 0 {
		for _, f := range failed {
			log.Error("file failed", "path", f.path, "error", f.err)
		}
		return n, aggregate("update", len(requests), failed)
	}
	log.Info("batch finished", "succeeded", n)
	return n, nil
}

// runTask converts a panic inside a worker into that file's error so one
// corrupt asset cannot take down the whole run.
func runTask(path string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", path, r)
		}
	}()
	return fn()
}

type taskError struct {
	path string
	err  error
}

func aggregate(op string, total int, failed []taskError) error {
	lines := make([]string, len(failed))
	for i, f := range failed {
		lines[i] = fmt.Sprintf("%s: %v", f.path, f.err)
	}
	return fmt.Errorf("%s failed for %d of %d files:\n%s", op, len(failed), total, strings.Join(lines, "\n"))
}

func readAsset(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
