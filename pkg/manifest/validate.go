// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hd2mm/hd2mm/internal/issue"
)

var errEscapesPackage = errors.New("path escapes the package directory")

type (
	// Result is the outcome of Validate: the problems found and, aligned with
	// Manifest.Options, the concrete files every include resolved to.
	Result struct {
		Problems []issue.Problem
		Options  []ResolvedOption
	}

	// ResolvedOption holds slash-separated file paths relative to the package
	// directory, sorted, for an option and each of its sub-options.
	ResolvedOption struct {
		Files      []string
		SubOptions [][]string
	}
)

// HasErrors reports whether any problem rejects the package.
func (r Result) HasErrors() bool { return issue.HasErrors(r.Problems) }

// Validate checks m against the extracted package in dir and resolves every
// include. Directories are expanded recursively; includes that escape dir or
// do not exist are reported as InvalidPath and contribute no files.
func Validate(m *Manifest, dir string) Result {
	v := validator{dir: dir}

	if m.IconPath != nil {
		v.checkImage(*m.IconPath)
	}
	if len(m.Options) == 0 {
		v.add(issue.Problem{Kind: issue.EmptyOptions})
	}

	v.result.Options = make([]ResolvedOption, len(m.Options))
	for i := range m.Options {
		opt := &m.Options[i]
		if opt.Image != nil {
			v.checkImage(*opt.Image)
		}
		if opt.SubOptions != nil && len(opt.SubOptions) == 0 {
			v.add(issue.Problem{Kind: issue.EmptySubOptions})
		}
		if len(opt.Include) == 0 && !opt.HasSubOptions() {
			v.add(issue.Problem{Kind: issue.EmptyIncludes})
		}

		resolved := ResolvedOption{Files: v.resolveAll(opt.Include)}
		if opt.HasSubOptions() {
			resolved.SubOptions = make([][]string, len(opt.SubOptions))
		}
		for j := range opt.SubOptions {
			sub := &opt.SubOptions[j]
			if sub.Image != nil {
				v.checkImage(*sub.Image)
			}
			if len(sub.Include) == 0 {
				v.add(issue.Problem{Kind: issue.EmptyIncludes})
			}
			resolved.SubOptions[j] = v.resolveAll(sub.Include)
		}
		v.result.Options[i] = resolved
	}

	return v.result
}

type validator struct {
	dir    string
	result Result
}

func (v *validator) add(p issue.Problem) {
	p.Directory = v.dir
	v.result.Problems = append(v.result.Problems, p)
}

func (v *validator) checkImage(p string) {
	if strings.TrimSpace(p) == "" {
		v.add(issue.Problem{Kind: issue.EmptyImagePath})
		return
	}
	full, err := resolveInside(v.dir, p)
	if err != nil {
		v.add(issue.Problem{Kind: issue.InvalidImagePath, Path: p})
		return
	}
	if info, err := os.Stat(full); err != nil || info.IsDir() {
		v.add(issue.Problem{Kind: issue.InvalidImagePath, Path: p})
	}
}

func (v *validator) resolveAll(includes []string) []string {
	var files []string
	for _, inc := range includes {
		found, err := v.resolve(inc)
		if err != nil {
			v.add(issue.Problem{Kind: issue.InvalidPath, Path: inc})
			continue
		}
		files = append(files, found...)
	}
	return dedupSorted(files)
}

func (v *validator) resolve(include string) ([]string, error) {
	full, err := resolveInside(v.dir, include)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{relSlash(v.dir, full)}, nil
	}
	return listFiles(v.dir, full)
}

// resolveInside joins a manifest path onto dir and rejects results outside dir.
// Backslash separators are accepted since most manifests are authored on Windows.
func resolveInside(dir, p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if p == "" || path.IsAbs(p) || filepath.IsAbs(filepath.FromSlash(p)) {
		return "", errEscapesPackage
	}
	full := filepath.Join(dir, filepath.FromSlash(p))
	rel, err := filepath.Rel(dir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errEscapesPackage
	}
	return full, nil
}

// listFiles returns every regular file under root as a slash path relative to base.
func listFiles(base, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, relSlash(base, p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func relSlash(base, p string) string {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func dedupSorted(files []string) []string {
	if len(files) == 0 {
		return nil
	}
	sort.Strings(files)
	out := files[:1]
	for _, f := range files[1:] {
		if f != out[len(out)-1] {
			out = append(out, f)
		}
	}
	return out
}
