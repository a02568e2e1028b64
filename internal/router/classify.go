package router

import (
	"regexp"
	"strings"
)

func classifyGreeting(u Utterance) (Command, bool) {
	if _, _, ok := firstMatch(greetingTemplates, u.Match); !ok {
		return nil, false
	}
	return Greeting{Text: u.Text}, true
}

// classifyMeta never fires when the text mentions a path: "was kannst du
// in /x finden" is a question about documents, not about the assistant.
func classifyMeta(u Utterance) (Command, bool) {
	if HasPath(u.Match) {
		return nil, false
	}
	if _, _, ok := firstMatch(metaTemplates, u.Match); !ok {
		return nil, false
	}
	return MetaQuestion{Text: u.Text}, true
}

var (
	createNameFillerRe = regexp.MustCompile(`(?i)\b(?:namens?|mit\s+dem\s+namen|genannt)\b`)
	nameTailRe         = regexp.MustCompile(`(?i)\s+(?:und|dann|oder)\b.*$`)
	switchNameFillerRe = regexp.MustCompile(`(?i)\b(?:der\s+)?(?:wissensdatenbank|datenbank|collection)\b\s*`)

	infoNameFillers = map[string]bool{
		"über":             true,
		"von":              true,
		"der":              true,
		"die":              true,
		"wissensdatenbank": true,
		"datenbank":        true,
		"collection":       true,
	}
)

func cleanName(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
}

func classifyCollection(u Utterance) (Command, bool) {
	text := u.Match

	if caps, _, ok := firstMatch(collectionCreateTemplates, text); ok {
		name := cleanName(caps[0])
		name = createNameFillerRe.ReplaceAllString(name, " ")
		name = nameTailRe.ReplaceAllString(name, "")
		name = cleanName(strings.Join(strings.Fields(name), " "))
		if name == "" {
			return nil, false
		}
		return CollectionCreate{Name: name}, true
	}

	if _, _, ok := firstMatch(collectionListTemplates, text); ok {
		return CollectionList{}, true
	}

	if caps, _, ok := firstMatch(collectionDeleteTemplates, text); ok {
		if name := cleanName(caps[0]); name != "" {
			return CollectionDelete{Name: name}, true
		}
		return nil, false
	}

	if caps, _, ok := firstMatch(collectionSwitchTemplates, text); ok {
		name := cleanName(switchNameFillerRe.ReplaceAllString(cleanName(caps[0]), ""))
		if name == "" {
			return nil, false
		}
		return CollectionSwitch{Name: name}, true
	}

	if caps, _, ok := firstMatch(collectionInfoTemplates, text); ok {
		var kept []string
		for _, w := range strings.Fields(cleanName(caps[0])) {
			if !infoNameFillers[strings.ToLower(w)] {
				kept = append(kept, w)
			}
		}
		if name := cleanName(strings.Join(kept, " ")); name != "" {
			return CollectionInfo{Name: name}, true
		}
		return nil, false
	}

	return nil, false
}

var (
	indexClauseRe    = regexp.MustCompile(`(?i)\s+(?:und|dann)\s+`)
	recursiveFlagRe  = regexp.MustCompile(`(?i)\s+(?:-r|--recursive|rekursiv)$`)
	indexAnchorRe    = regexp.MustCompile(`(?i)\s+(?:hinzu|zur\s+datenbank|zur\s+wissensdatenbank)\b`)
	indexVerbRe      = regexp.MustCompile(`(?i)^(?:bitte\s+)?(?:füge|füg)\s+`)
	indexRelativeRe  = regexp.MustCompile(`(?:^|\s)(\.\.?/[^\s"]+)`)
	indexHinzuTailRe = regexp.MustCompile(`(?i)\s+hinzu.*$`)
	indexLeadFillRe  = regexp.MustCompile(`(?i)^(?:bitte\s+)?(?:den\s+gesamten\s+inhalt\s*:?\s*)?`)
	indexTailFillRe  = regexp.MustCompile(`(?i)(?:\s+(?:bitte|den|gesamten|inhalt|von|aus)\s*:?)+\s*$`)
)

// classifyIndex only succeeds with a recognizable path. A second clause
// after "und" or "dann" is dropped before matching.
func classifyIndex(u Utterance) (Command, bool) {
	q := u.Match
	if loc := indexClauseRe.FindStringIndex(q); loc != nil {
		q = strings.TrimSpace(q[:loc[0]])
	}

	recursive := false
	if loc := recursiveFlagRe.FindStringIndex(q); loc != nil {
		recursive = true
		q = strings.TrimSpace(q[:loc[0]])
	}

	caps, _, ok := firstMatch(indexTemplates, q)
	if !ok {
		return nil, false
	}

	path, found := Path{}, false

	// "füge X hinzu": only the span before the anchor can hold the path.
	if loc := indexAnchorRe.FindStringIndex(q); loc != nil {
		before := indexVerbRe.ReplaceAllString(strings.TrimSpace(q[:loc[0]]), "")
		path, found = ExtractPath(before)
	}

	if !found {
		if m := indexRelativeRe.FindStringSubmatch(q); m != nil {
			path, found = newPath(KindRelativeDotted, trimPathMatch(m[1])), true
		}
	}

	if !found {
		path, found = ExtractPath(q)
	}

	if !found && len(caps) > 0 {
		capture := trimPathMatch(indexHinzuTailRe.ReplaceAllString(caps[0], ""))
		if kind, ok := pathShape(capture); ok {
			path, found = newPath(kind, capture), true
		}
	}

	if !found {
		return nil, false
	}

	raw := indexLeadFillRe.ReplaceAllString(path.Raw, "")
	raw = indexTailFillRe.ReplaceAllString(raw, "")
	raw = trimPathMatch(raw)
	if raw == "" {
		return nil, false
	}

	return Index{Path: newPath(path.Kind, raw), Recursive: recursive}, true
}

// pathShape reports the kind a lone token would have as a path.
func pathShape(s string) (PathKind, bool) {
	switch {
	case s == "":
		return 0, false
	case strings.HasPrefix(s, "~/"):
		return KindHome, true
	case strings.HasPrefix(s, "/"):
		return KindAbsolute, true
	case strings.HasPrefix(s, "./"), strings.HasPrefix(s, "../"):
		return KindRelativeDotted, true
	case strings.Contains(s, "/") && !strings.HasPrefix(s, "~"):
		return KindBareSlashed, true
	default:
		return 0, false
	}
}
