package router

import (
	"regexp"
	"strings"
)

// PathKind is the textual shape a path was recognized by.
type PathKind int

const (
	KindHome PathKind = iota + 1
	KindAbsolute
	KindRelativeDotted
	KindBareSlashed
	// KindBare is a single-segment argument like "test" or "file.txt".
	// Only classifiers produce it; ExtractPath never does.
	KindBare
)

func (k PathKind) String() string {
	switch k {
	case KindHome:
		return "home"
	case KindAbsolute:
		return "absolute"
	case KindRelativeDotted:
		return "relative"
	case KindBareSlashed:
		return "bare-slashed"
	case KindBare:
		return "bare"
	default:
		return "unknown"
	}
}

// Path is a path as it appeared in chat text.
// Normalized is always NormalizePath(Kind, Raw).
type Path struct {
	Raw        string
	Normalized string
	Kind       PathKind
}

func (p Path) String() string {
	return p.Normalized
}

// DesktopPath is the one path the router may supply without it being typed.
func DesktopPath() Path {
	return newPath(KindHome, "~/Desktop")
}

// BarePath wraps a verbatim classifier capture that is not a recognizable path.
func BarePath(s string) Path {
	return newPath(KindBare, strings.Trim(strings.TrimSpace(s), `"'`))
}

func newPath(kind PathKind, raw string) Path {
	return Path{Raw: raw, Normalized: NormalizePath(kind, raw), Kind: kind}
}

var (
	typoFixes = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`(?i)\bDestop\b`), "Desktop"},
		{regexp.MustCompile(`(?i)\bDokumente\b`), "Documents"},
	}

	slashRunRe = regexp.MustCompile(`/+`)

	homePathRe     = regexp.MustCompile(`~/[^\s"]+(?:\s+[^\s"]+)*`)
	absolutePathRe = regexp.MustCompile(`(?:^|[\s"'=(])(/[^\s"]+)`)
	leadingRelRe   = regexp.MustCompile(`^\.\.?/[^\s"]+`)
	relativePathRe = regexp.MustCompile(`\.\.?/[^\s"]+`)
	conjunctionRe  = regexp.MustCompile(`(?i)\s+(?:und|dann)(?:\s.*)?$`)
	pathFillerRe   = regexp.MustCompile(`(?i)\b(?:bitte|den|gesamten|inhalt|von|aus)\b\s*:?\s*`)
	bareSlashedRe  = regexp.MustCompile(`[^\s"]+(?:/[^\s"]+)+`)
)

// NormalizePath applies typo correction and, for absolute paths,
// collapses repeated slashes.
func NormalizePath(kind PathKind, raw string) string {
	s := raw
	for _, fix := range typoFixes {
		s = fix.re.ReplaceAllString(s, fix.repl)
	}
	if kind == KindAbsolute {
		s = slashRunRe.ReplaceAllString(s, "/")
	}
	return s
}

// ExtractPath finds at most one filesystem path in text.
//
// Precedence: home (~/...), absolute (/...), relative (./ or ../),
// bare slashed (a/b). Home and absolute matches stop before a standalone
// "und" or "dann" so a second clause is not swallowed.
func ExtractPath(text string) (Path, bool) {
	text = strings.Trim(strings.TrimSpace(text), `"'`)
	if text == "" {
		return Path{}, false
	}

	if m := homePathRe.FindString(text); m != "" {
		if raw := trimPathMatch(conjunctionRe.ReplaceAllString(m, "")); raw != "" {
			return newPath(KindHome, raw), true
		}
	}

	if m := absolutePathRe.FindStringSubmatch(text); m != nil {
		if raw := trimPathMatch(conjunctionRe.ReplaceAllString(m[1], "")); strings.HasPrefix(raw, "/") {
			return newPath(KindAbsolute, raw), true
		}
	}

	if strings.HasPrefix(text, "./") || strings.HasPrefix(text, "../") {
		if m := leadingRelRe.FindString(text); m != "" {
			return newPath(KindRelativeDotted, trimPathMatch(m)), true
		}
	} else if matches := relativePathRe.FindAllString(text, -1); len(matches) > 0 {
		longest := matches[0]
		for _, m := range matches[1:] {
			if len(m) > len(longest) {
				longest = m
			}
		}
		return newPath(KindRelativeDotted, trimPathMatch(longest)), true
	}

	if strings.Contains(text, "/") && !strings.HasPrefix(text, "~") && !strings.HasPrefix(text, "/") {
		cleaned := strings.TrimSpace(pathFillerRe.ReplaceAllString(text, ""))
		if m := bareSlashedRe.FindString(cleaned); m != "" {
			if raw := trimPathMatch(m); strings.Count(raw, "/") >= 1 {
				return newPath(KindBareSlashed, raw), true
			}
		}
	}

	return Path{}, false
}

// HasPath reports whether ExtractPath finds anything in text.
func HasPath(text string) bool {
	_, ok := ExtractPath(text)
	return ok
}

func trimPathMatch(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
