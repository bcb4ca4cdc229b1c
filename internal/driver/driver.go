// Package driver orchestrates lint runs over files and directories: loading,
// decoding, linting, optional write-back, and the disk cache that lets clean
// files skip re-linting across runs.
package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"promptlint/internal/config"
	"promptlint/internal/diag"
	"promptlint/internal/lint"
	"promptlint/internal/prompt"
	"promptlint/internal/source"
)

// Options configures one lint run.
type Options struct {
	Fix            bool
	Write          bool // write repaired documents back to disk
	Flow           bool
	Fields         []string
	MaxDiagnostics int
	Config         config.Config
	EnableCache    bool
	Jobs           int
}

// FileResult is the outcome for one document. Each result carries its own
// FileSet because field texts are registered as virtual files during the run.
type FileResult struct {
	Path      string
	FileID    source.FileID
	FS        *source.FileSet
	Bag       *diag.Bag
	Lint      *lint.Result
	Malformed bool
	FromCache bool
}

// HasErrors reports whether the result carries error diagnostics.
func (r *FileResult) HasErrors() bool {
	return r.Bag != nil && r.Bag.HasErrors()
}

func (o Options) lintOptions() (lint.Options, error) {
	policy, err := o.Config.Policy.ScanPolicy()
	if err != nil {
		return lint.Options{}, err
	}
	return lint.Options{
		Fix:    o.Fix,
		Flow:   o.Flow,
		Fields: o.Fields,
		Policy: policy,
	}, nil
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics > 0 {
		return o.MaxDiagnostics
	}
	if o.Config.Lint.MaxDiagnostics > 0 {
		return o.Config.Lint.MaxDiagnostics
	}
	return 256
}

// LintFile lints one document on disk. With Fix and Write set, a repaired
// document replaces the original atomically.
func LintFile(path string, opts Options) (*FileResult, error) {
	lintOpts, err := opts.lintOptions()
	if err != nil {
		return nil, err
	}
	return lintOne(path, filepath.Dir(path), opts, lintOpts, nil, Digest{}), nil
}

// LintBytes lints an in-memory document, e.g. stdin. The content gets the
// same BOM and CRLF normalization as documents loaded from disk.
func LintBytes(name string, data []byte, opts Options) (*FileResult, error) {
	lintOpts, err := opts.lintOptions()
	if err != nil {
		return nil, err
	}

	fs := source.NewFileSet()
	res := &FileResult{Path: name, FS: fs, Bag: diag.NewBag(opts.maxDiagnostics())}
	data, flags := source.Normalize(data)
	res.FileID = fs.Add(name, data, flags|source.FileVirtual)
	lintLoaded(res, fs.Get(res.FileID), lintOpts)
	res.Bag.Sort()
	return res, nil
}

func lintLoaded(res *FileResult, file *source.File, lintOpts lint.Options) {
	doc, err := prompt.DecodeBytes(file.Content)
	if err != nil {
		res.Bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.IOMalformedInput,
			Message:  "not a valid JSON document: " + err.Error(),
			Primary:  source.At(file.ID, 0),
		})
		res.Malformed = true
		return
	}
	res.Lint = lint.Run(res.FS, displayName(res.Path), doc, lintOpts)
	res.Lint.Diagnose(diag.BagReporter{Bag: res.Bag})
}

func displayName(path string) string {
	return filepath.ToSlash(path)
}

func writeBack(path string, doc *prompt.Value) error {
	var buf bytes.Buffer
	if err := prompt.EncodeIndent(&buf, doc, "  "); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".promptlint-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ListJSONFiles exposes the deterministic file discovery used by LintDir, so
// callers can size progress displays before the run starts.
func ListJSONFiles(dir string) ([]string, error) {
	return listJSONFiles(dir)
}

// listJSONFiles collects the .json files under dir, sorted for deterministic
// output.
func listJSONFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
