// Package convert runs the batch conversion of a directory of MAT-files
// into label-organized images.
package convert

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"

	"github.com/robert-malhotra/mat2img/internal/container"
	"github.com/robert-malhotra/mat2img/internal/imageio"
	"github.com/robert-malhotra/mat2img/internal/logger"
	"github.com/robert-malhotra/mat2img/internal/record"
)

// OutputPath returns root/<label>/<stem><ext> for the input file.
func OutputPath(root string, label int, input string, format imageio.Format) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(root, strconv.Itoa(label), stem+format.Ext())
}

// Driver converts every matching file of an input directory.
type Driver struct {
	cfg    Config
	fs     afero.Fs
	reader *container.Reader

	mu      sync.Mutex
	dirs    map[string]struct{}
	summary *Summary
}

func NewDriver(cfg Config, fs afero.Fs) *Driver {
	return &Driver{
		cfg:    cfg.withDefaults(),
		fs:     fs,
		reader: container.NewReader(fs),
	}
}

// Run processes the input directory. Per-file failures are logged and
// counted; the returned error is reserved for faults that stop the whole
// batch. Cancelling ctx stops admitting files and lets running ones finish.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With("run", runID)

	if !doublestar.ValidatePattern(d.cfg.Pattern) {
		return nil, fmt.Errorf("invalid file pattern %q", d.cfg.Pattern)
	}
	if err := d.fs.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	files, err := d.inputs()
	if err != nil {
		return nil, err
	}

	d.dirs = make(map[string]struct{})
	d.summary = newSummary(runID)
	d.summary.Matched = len(files)

	sem := semaphore.NewWeighted(int64(d.cfg.Workers))
	var wg sync.WaitGroup
	for _, name := range files {
		if ctx.Err() != nil {
			d.summary.Interrupted = true
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			d.summary.Interrupted = true
			break
		}
		wg.Go(func() {
			defer sem.Release(1)
			d.process(log, name)
		})
	}
	wg.Wait()

	s := d.summary
	s.Duration = time.Since(start)
	if s.Interrupted {
		log.Warn("Process interrupted by user")
	}
	log.Info("Processing complete!",
		"matched", s.Matched, "saved", s.Saved, "failed", s.Failed(),
		"existing", s.Existing, "duration", s.Duration.Round(time.Millisecond))
	return s, nil
}

// inputs lists matching files of the input directory in name order.
func (d *Driver) inputs() ([]string, error) {
	entries, err := afero.ReadDir(d.fs, d.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("listing input directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := doublestar.Match(d.cfg.Pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("matching %s: %w", e.Name(), err)
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (d *Driver) process(log logger.Logger, name string) {
	path := filepath.Join(d.cfg.InputDir, name)
	log = log.With("file", name)
	log.Info("Processing file")

	h, err := d.reader.Open(path)
	if err != nil {
		d.fail(log, "Skipping file due to read error", err)
		return
	}
	raw, err := record.Extract(h)
	h.Release()
	if err != nil {
		d.fail(log, "Skipping file due to data extraction error", err)
		return
	}
	img, err := record.Normalize(raw.Image, record.NormalizeOptions{Policy: d.cfg.ConstantPolicy})
	if err != nil {
		d.fail(log, "Skipping file due to image processing error", err)
		return
	}

	out := OutputPath(d.cfg.OutputDir, raw.Label, name, d.cfg.Format)
	if d.cfg.SkipExisting {
		if ok, _ := afero.Exists(d.fs, out); ok {
			log.Info("Output exists, skipping", "path", out)
			d.mu.Lock()
			d.summary.Existing++
			d.mu.Unlock()
			return
		}
	}
	if err := d.ensureDir(filepath.Dir(out)); err != nil {
		d.fail(log, "Error processing file", err)
		return
	}
	if err := d.write(out, img); err != nil {
		d.fail(log, "Error processing file", err)
		return
	}

	d.mu.Lock()
	d.summary.Saved++
	d.summary.PerLabel[raw.Label]++
	d.mu.Unlock()
	log.Info("Successfully saved", "path", out, "label", raw.Label)
}

func (d *Driver) fail(log logger.Logger, msg string, err error) {
	kind := failureKind(err)
	log.Error(msg, "kind", kind, "error", err)
	d.mu.Lock()
	d.summary.Failures[kind]++
	d.mu.Unlock()
}

// ensureDir creates a label directory once per run.
func (d *Driver) ensureDir(dir string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.dirs[dir]; ok {
		return nil
	}
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	d.dirs[dir] = struct{}{}
	return nil
}

// write encodes img to a temporary sibling of out and renames it into
// place.
func (d *Driver) write(out string, img image.Image) (err error) {
	tmp := filepath.Join(filepath.Dir(out), "."+filepath.Base(out)+"."+uuid.NewString()+".tmp")
	f, err := d.fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = d.fs.Remove(tmp)
		}
	}()
	if err := imageio.Encode(f, img, d.cfg.Format, imageio.Options{Quality: d.cfg.Quality}); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if err := d.fs.Rename(tmp, out); err != nil {
		return fmt.Errorf("renaming into %s: %w", out, err)
	}
	return nil
}
