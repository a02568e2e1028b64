package router

import "strings"

// Captures that name the session directory rather than a path.
var hereWords = map[string]bool{
	"diesem ordner":        true,
	"diesem verzeichnis":   true,
	"diesem pfad":          true,
	"dem aktuellen ordner": true,
	"hier":                 true,
	"dort":                 true,
	"darin":                true,
}

// Trailing words of a tidy request that are not a source.
var tidyFillers = map[string]bool{
	"bitte":      true,
	"jetzt":      true,
	"wirklich":   true,
	"ausführen":  true,
	"ausfuehren": true,
	"mach das":   true,
	"auf":        true,
	"bitte auf":  true,
}

// classifyFilesystem tries each filesystem intent in a fixed order and
// returns the first one whose template matches and whose required
// arguments can be filled.
func classifyFilesystem(u Utterance) (Command, bool) {
	text := u.Match

	if caps, _, ok := firstMatch(fsListTemplates, text); ok {
		return ListDir{Path: listTarget(text, first(caps))}, true
	}

	if caps, _, ok := firstMatch(fsNavigateTemplates, text); ok {
		if p, ok := target(first(caps)); ok {
			return Navigate{Path: p}, true
		}
		return nil, false
	}

	if _, _, ok := firstMatch(fsWhereTemplates, text); ok {
		return Where{}, true
	}

	if caps, _, ok := firstMatch(fsTreeTemplates, text); ok {
		if p, ok := target(first(caps)); ok {
			return Tree{Path: &p}, true
		}
		return Tree{}, true
	}

	if caps, _, ok := firstMatch(fsCreateDirTemplates, text); ok {
		if p, ok := target(first(caps)); ok {
			return CreateDir{Path: p}, true
		}
		return nil, false
	}

	if caps, _, ok := firstMatch(fsCreateFileTemplates, text); ok {
		if p, ok := target(first(caps)); ok {
			return CreateFile{Path: p}, true
		}
		return nil, false
	}

	if caps, _, ok := firstMatch(fsMoveTemplates, text); ok {
		src, okSrc := target(caps[0])
		dst, okDst := target(caps[1])
		if okSrc && okDst {
			return Move{Source: src, Dest: dst}, true
		}
		return nil, false
	}

	if caps, _, ok := firstMatch(fsCopyTemplates, text); ok {
		src, okSrc := target(caps[0])
		dst, okDst := target(caps[1])
		if okSrc && okDst {
			return Copy{Source: src, Dest: dst}, true
		}
		return nil, false
	}

	if caps, _, ok := firstMatch(fsDeleteTemplates, text); ok {
		if p, ok := target(first(caps)); ok {
			return Delete{Path: p}, true
		}
		return nil, false
	}

	if caps, _, ok := firstMatch(fsOrganizeTemplates, text); ok {
		src, ok := organizeSource(caps[0])
		if !ok {
			return nil, false
		}
		cmd := Organize{Source: src, RawQuery: u.Text}
		if len(caps) > 1 && caps[1] != "" {
			if dst, ok := target(caps[1]); ok {
				cmd.Dest = &dst
			}
		}
		return cmd, true
	}

	if caps, _, ok := firstMatch(fsTidyTemplates, text); ok {
		src := DesktopPath()
		if potential := first(caps); potential != "" && !tidyFillers[strings.ToLower(potential)] {
			if p, ok := organizeSource(potential); ok {
				src = p
			}
		}
		return Organize{Source: src, Tidy: true, RawQuery: u.Text}, true
	}

	if caps, _, ok := firstMatch(fsFindSimilarTemplates, text); ok {
		if p, ok := target(first(caps)); ok {
			return FindSimilar{Path: p}, true
		}
		return nil, false
	}

	return nil, false
}

func first(caps []string) string {
	if len(caps) == 0 {
		return ""
	}
	return caps[0]
}

// target turns a template capture into a path: a recognizable path inside
// the capture wins, otherwise the capture is taken verbatim.
func target(capture string) (Path, bool) {
	capture = trimPathMatch(capture)
	if capture == "" {
		return Path{}, false
	}
	if p, ok := ExtractPath(capture); ok {
		return p, true
	}
	return BarePath(capture), true
}

// listTarget resolves the directory of a listing request. nil means the
// session directory.
func listTarget(text, capture string) *Path {
	capture = trimPathMatch(capture)
	if capture != "" {
		if p, ok := ExtractPath(capture); ok {
			return &p
		}
	}
	if p, ok := ExtractPath(text); ok {
		return &p
	}
	if strings.Contains(strings.ToLower(text), "desktop") {
		p := DesktopPath()
		return &p
	}
	if capture != "" && !hereWords[strings.ToLower(capture)] {
		p := BarePath(capture)
		return &p
	}
	return nil
}

func organizeSource(capture string) (Path, bool) {
	capture = trimPathMatch(capture)
	if capture == "" {
		return Path{}, false
	}
	if p, ok := ExtractPath(capture); ok {
		return p, true
	}
	if strings.Contains(strings.ToLower(capture), "desktop") {
		return DesktopPath(), true
	}
	return BarePath(capture), true
}
