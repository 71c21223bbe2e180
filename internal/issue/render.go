// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"strings"
)

// Markdown formats problems as a Markdown report. Errors are listed before
// warnings; within each group the input order is kept.
func Markdown(title string, problems []Problem) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString("# ")
		sb.WriteString(title)
		sb.WriteString("\n")
	}

	errs, warnings := Split(problems)
	writeGroup(&sb, "Errors", errs)
	writeGroup(&sb, "Warnings", warnings)
	return sb.String()
}

// RenderProblems formats problems with Markdown and renders them with glamour
// using the given style ("" selects the default auto style).
func RenderProblems(title string, problems []Problem, stylePath string) (string, error) {
	if len(problems) == 0 {
		return "", nil
	}
	if stylePath == "" {
		stylePath = "auto"
	}
	return render(Markdown(title, problems), stylePath)
}

func writeGroup(sb *strings.Builder, heading string, problems []Problem) {
	if len(problems) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n## %s\n\n", heading)
	for _, p := range problems {
		fmt.Fprintf(sb, "- `%s`\n  %s\n", p.Directory, Describe(p))
	}
}

// Describe returns a one-sentence English description of a problem.
func Describe(p Problem) string {
	switch p.Kind {
	case CantParseManifest:
		if p.Detail != "" {
			return "The manifest could not be parsed: " + p.Detail
		}
		return "The manifest could not be parsed."
	case UnknownManifestVersion:
		return "The manifest does not declare a known schema version."
	case OutOfSupportManifest:
		return fmt.Sprintf("The manifest uses schema version %d but this build supports up to version %d. Update hd2mm.",
			p.DeclaredVersion, p.EngineVersion)
	case Duplicate:
		if p.Detail != "" {
			return fmt.Sprintf("A package with the same GUID is already registered at `%s`.", p.Detail)
		}
		return "A package with the same GUID is already registered."
	case InvalidPath:
		if p.Path != "" {
			return fmt.Sprintf("The include path `%s` does not exist or points outside the package.", p.Path)
		}
		return "An include path does not exist or points outside the package."
	case NoManifestFound:
		switch p.Resolution {
		case ResolutionDeleted:
			return "No manifest was found; the directory was deleted."
		case ResolutionInferred:
			return "No manifest was found; one was inferred from the archive contents."
		default:
			return "No manifest was found."
		}
	case EmptyOptions:
		return "The manifest declares no options."
	case EmptySubOptions:
		return "An option declares an empty sub-option list."
	case EmptyIncludes:
		return "An option or sub-option includes no files."
	case InvalidImagePath:
		if p.Path != "" {
			return fmt.Sprintf("The image path `%s` does not exist or points outside the package.", p.Path)
		}
		return "An image path does not exist or points outside the package."
	case EmptyImagePath:
		return "An image path is empty."
	default:
		return p.Kind.String()
	}
}
