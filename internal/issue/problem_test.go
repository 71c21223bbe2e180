// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestKind_IsError(t *testing.T) {
	t.Parallel()

	errorKinds := map[Kind]bool{
		CantParseManifest:      true,
		UnknownManifestVersion: true,
		OutOfSupportManifest:   true,
		Duplicate:              true,
		InvalidPath:            true,
	}

	for _, k := range Kinds() {
		if got := k.IsError(); got != errorKinds[k] {
			t.Errorf("%s.IsError() = %v, want %v", k, got, errorKinds[k])
		}
	}
}

func TestKinds_Closed(t *testing.T) {
	t.Parallel()

	kinds := Kinds()
	if len(kinds) != 11 {
		t.Fatalf("Kinds() returned %d kinds, want 11", len(kinds))
	}
	for _, k := range kinds {
		if !k.IsValid() {
			t.Errorf("%d should be valid", k)
		}
		if strings.HasPrefix(k.String(), "Kind(") {
			t.Errorf("%d has no name", k)
		}
	}
	if Kind(0).IsValid() || Kind(99).IsValid() {
		t.Error("out of range kinds should be invalid")
	}
	if got := Kind(99).String(); got != "Kind(99)" {
		t.Errorf("Kind(99).String() = %q", got)
	}
}

func TestSplitAndHasErrors(t *testing.T) {
	t.Parallel()

	problems := []Problem{
		{Directory: "a", Kind: EmptyOptions},
		{Directory: "b", Kind: InvalidPath, Path: "missing"},
		{Directory: "c", Kind: EmptyImagePath},
		{Directory: "d", Kind: Duplicate},
	}

	errs, warnings := Split(problems)
	if len(errs) != 2 || errs[0].Directory != "b" || errs[1].Directory != "d" {
		t.Errorf("errors = %+v", errs)
	}
	if len(warnings) != 2 || warnings[0].Directory != "a" || warnings[1].Directory != "c" {
		t.Errorf("warnings = %+v", warnings)
	}
	if !HasErrors(problems) {
		t.Error("HasErrors() = false, want true")
	}
	if HasErrors(warnings) {
		t.Error("HasErrors(warnings) = true, want false")
	}
	if HasErrors(nil) {
		t.Error("HasErrors(nil) = true, want false")
	}
}

func TestProblem_String(t *testing.T) {
	t.Parallel()

	p := Problem{Directory: "/mods/x", Kind: InvalidPath, Path: "textures"}
	if got := p.String(); got != "InvalidPath in /mods/x (textures)" {
		t.Errorf("String() = %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	md := Markdown("Scan report", []Problem{
		{Directory: "/mods/w", Kind: NoManifestFound, Resolution: ResolutionDeleted},
		{Directory: "/mods/e", Kind: OutOfSupportManifest, DeclaredVersion: 2, EngineVersion: 1},
	})

	if !strings.HasPrefix(md, "# Scan report\n") {
		t.Errorf("missing title: %q", md)
	}
	errIdx := strings.Index(md, "## Errors")
	warnIdx := strings.Index(md, "## Warnings")
	if errIdx < 0 || warnIdx < 0 || errIdx > warnIdx {
		t.Errorf("errors must precede warnings: %q", md)
	}
	if !strings.Contains(md, "schema version 2") || !strings.Contains(md, "version 1") {
		t.Errorf("out-of-support description missing versions: %q", md)
	}
	if !strings.Contains(md, "the directory was deleted") {
		t.Errorf("deleting resolution missing: %q", md)
	}
}

func TestDescribe_AllKinds(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds() {
		if d := Describe(Problem{Kind: k}); d == "" || d == k.String() {
			t.Errorf("Describe(%s) has no description", k)
		}
	}
	if got := Describe(Problem{Kind: NoManifestFound, Resolution: ResolutionInferred}); !strings.Contains(got, "inferred") {
		t.Errorf("inferring resolution = %q", got)
	}
}

func TestRenderProblems(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	var gotStyle string
	render = func(in string, stylePath string) (string, error) {
		gotStyle = stylePath
		return "rendered:" + in, nil
	}

	out, err := RenderProblems("t", nil, "")
	if err != nil || out != "" {
		t.Fatalf("RenderProblems(nil) = %q, %v", out, err)
	}

	out, err = RenderProblems("t", []Problem{{Directory: "x", Kind: EmptyOptions}}, "")
	if err != nil {
		t.Fatalf("RenderProblems() error: %v", err)
	}
	if gotStyle != "auto" {
		t.Errorf("style = %q, want auto", gotStyle)
	}
	if !strings.HasPrefix(out, "rendered:# t") {
		t.Errorf("unexpected output %q", out)
	}
}
