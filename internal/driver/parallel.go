package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"promptlint/internal/diag"
	"promptlint/internal/lint"
	"promptlint/internal/source"
)

// Event reports per-file progress during a directory run. The callback may be
// invoked from multiple goroutines.
type Event struct {
	Path  string
	Index int
	Total int
	Dirty bool
	Err   bool
}

// LintDir lints every .json file under dir, up to opts.Jobs files at a time.
// Results come back in the deterministic file order regardless of which
// worker finished first.
func LintDir(ctx context.Context, dir string, opts Options, progress func(Event)) ([]*FileResult, error) {
	files, err := listJSONFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	lintOpts, err := opts.lintOptions()
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var dcache *DiskCache
	if opts.EnableCache {
		dcache, err = OpenDiskCache("promptlint")
		if err != nil {
			return nil, fmt.Errorf("failed to open disk cache: %w", err)
		}
	}
	policyHash := policyDigest(opts)

	results := make([]*FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res := lintOne(path, dir, opts, lintOpts, dcache, policyHash)
			results[i] = res
			if progress != nil {
				progress(Event{
					Path:  path,
					Index: i,
					Total: len(files),
					Dirty: res.Bag.Len() > 0,
					Err:   res.HasErrors(),
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func lintOne(path, dir string, opts Options, lintOpts lint.Options, dcache *DiskCache, policyHash Digest) *FileResult {
	fs := source.NewFileSetWithBase(dir)
	res := &FileResult{Path: path, FS: fs, Bag: diag.NewBag(opts.maxDiagnostics())}

	id, err := fs.Load(path)
	if err != nil {
		res.Bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.IOLoadFileError,
			Message:  "failed to load file: " + err.Error(),
		})
		res.Malformed = true
		return res
	}
	res.FileID = id
	file := fs.Get(id)

	if cachedClean(dcache, file.Hash, policyHash) {
		res.FromCache = true
		return res
	}

	lintLoaded(res, file, lintOpts)
	res.Bag.Sort()

	if opts.Fix && opts.Write && res.Lint != nil && res.Lint.Changed {
		if err := writeBack(path, res.Lint.Document); err != nil {
			res.Bag.Add(diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.IOLoadFileError,
				Message:  "failed to write repaired file: " + err.Error(),
			})
			return res
		}
	}

	if res.Bag.Len() == 0 && !res.Malformed {
		recordClean(dcache, path, file.Hash, policyHash)
	}
	return res
}
