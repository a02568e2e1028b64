package router

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single backtracking match on user input.
const matchTimeout = 100 * time.Millisecond

// template is one phrasing of an intent. captures lists the group
// numbers handed to the extractor, in order.
type template struct {
	re       *regexp2.Regexp
	captures []int
}

func tpl(expr string, captures ...int) template {
	re := regexp2.MustCompile(expr, regexp2.IgnoreCase)
	re.MatchTimeout = matchTimeout
	return template{re: re, captures: captures}
}

// firstMatch runs the templates in order and returns the captures of the
// first one that matches. Groups that did not participate are "".
// A timed-out match counts as no match.
func firstMatch(templates []template, text string) ([]string, int, bool) {
	for i, t := range templates {
		m, err := t.re.FindStringMatch(text)
		if err != nil || m == nil {
			continue
		}
		caps := make([]string, len(t.captures))
		for j, n := range t.captures {
			if g := m.GroupByNumber(n); g != nil {
				caps[j] = strings.TrimSpace(g.String())
			}
		}
		return caps, i, true
	}
	return nil, -1, false
}

const noPath = `(?!.*[/~])(?!.*\s+(?:in|von|zu|nach)\s+[/~])`

var greetingTemplates = []template{
	tpl(`^(hallo|hi|hey|moin|servus|grüß gott|guten (morgen|tag|abend))[\s!?.]*$`),
	tpl(`^(wie geht'?s|wie geht es dir|alles klar|was geht)[\s!?.]*$`),
	tpl(`^(danke|vielen dank|thx|thanks)(\s+(?:dir|danke|schön|für\s+(?:die\s+)?hilfe))?[\s!?.]*$`),
	tpl(`^(tschüss|bye|ciao|auf wiedersehen)[\s!?.]*$`),
}

var metaTemplates = []template{
	tpl(`^(was|wer) (bist|kannst) (du|ihr)[\s!?.]*$`),
	tpl(`^(was kannst du|wer bist du|was bist du)` + noPath + `.*$`),
	tpl(`^(wie funktionierst du|wie arbeitest du)` + noPath + `.*$`),
	tpl(`^(welche (dokumente|dateien|daten) (hast|kennst|stehen) (du|dir))` + noPath + `.*$`),
	tpl(`^(was (weißt|weisst) du|was (hast|kannst) du (gelernt|gespeichert))` + noPath + `.*$`),
	tpl(`^(hilfe|help|was kann ich (fragen|dich fragen))` + noPath + `.*$`),
	tpl(`^(erkläre|erklär) (dich|mir wie du funktionierst)` + noPath + `.*$`),
	tpl(`^(woher (hast|nimmst|bekommst) du (dein|die) (wissen|informationen|daten))` + noPath + `.*$`),
}

var indexTemplates = []template{
	tpl(`^(?:bitte\s+)?(indexiere|indiziere|lade|importiere|verarbeite|scanne|lies ein?)\s+(.+)$`, 2),
	tpl(`^(?:bitte\s+)?(füge|füg)\s+([^\s]+(?:\s+[^\s]+)*?)\s+(hinzu|zur datenbank|zur wissensdatenbank)$`, 2),
	tpl(`^(?:bitte\s+)?(lerne|lern)\s+(.+)$`, 2),
	tpl(`^ingest\s+(.+)$`, 1),
}

var (
	collectionCreateTemplates = []template{
		tpl(`^(erstelle|erstell|lege an|anlegen)\s+(?:eine\s+)?(?:neue\s+)?(?:wissensdatenbank|datenbank|collection)\s+(?:namens?|mit\s+dem\s+namen|genannt)\s+(.+)$`, 2),
		tpl(`^(erstelle|erstell|lege an|anlegen)\s+(?:eine\s+)?(?:neue\s+)?(?:wissensdatenbank|datenbank|collection)\s+(.+)$`, 2),
		tpl(`^(neue\s+)?(?:wissensdatenbank|datenbank|collection)\s+(.+)$`, 2),
	}
	collectionListTemplates = []template{
		tpl(`^(zeige|zeig|liste|list|zeige mir|zeig mir)\s+(?:alle\s+)?(?:wissensdatenbanken|datenbanken|collections)$`),
		tpl(`^(welche|was\s+sind\s+die)\s+(?:wissensdatenbanken|datenbanken|collections)(?:\s+gibt\s+es)?$`),
		tpl(`^(welche|was\s+sind\s+die)\s+(?:wissensdatenbanken|datenbanken|collections)\s+(?:gibt\s+es|existieren)$`),
	}
	collectionDeleteTemplates = []template{
		tpl(`^(lösche|lösch|entferne|entfern|delete)\s+(?:die\s+)?(?:wissensdatenbank|datenbank|collection)\s+(.+)$`, 2),
		tpl(`^(lösche|lösch|entferne|entfern|delete)\s+(.+)$`, 2),
	}
	collectionSwitchTemplates = []template{
		tpl(`^(wechsel|wechsle|nutze|verwende|use|switch)\s+(?:zu|zur)\s+(?:der\s+)?(?:wissensdatenbank|datenbank|collection)\s+(.+)$`, 2),
		tpl(`^(wechsel|wechsle|nutze|verwende|use|switch)\s+(?:zu|zur)\s+(.+)$`, 2),
		tpl(`^(wechsel|wechsle|nutze|verwende|use|switch)\s+(.+)$`, 2),
	}
	collectionInfoTemplates = []template{
		tpl(`^(info|informationen|details|zeige info|zeige informationen)\s+(?:über|von|der|die)\s+(?:wissensdatenbank|datenbank|collection)\s+(.+)$`, 2),
		tpl(`^(info|informationen|details)\s+(.+)$`, 2),
	}
)

const sichBefinden = `(?:befindet\s+sich|befidnet\s+sich|befidet\s+sich|befindt\s+sich|befinet\s+sich|ist|sind|gibt es)`

var (
	fsListTemplates = []template{
		tpl(`^(zeige|zeig|liste|list|ls|zeige mir|zeig mir)\s+(?:den\s+)?(?:inhalt|inhalt von|dateien|dateien in)\s+(?:von|des|der|die)\s*(.+)$`, 2),
		tpl(`^(was|welche|was für)\s+`+sichBefinden+`\s+(?:noch\s+)?(?:in\s+diesem\s+pfad|in\s+diesem\s+ordner|in|dort|darin|auf\s+meinem\s+desktop|auf\s+dem\s+desktop|hier)\s*:?\s*(.+)$`, 2),
		tpl(`^(was|welche|was für)\s+` + sichBefinden + `\s+(?:noch\s+)?(?:auf\s+meinem\s+desktop|auf\s+dem\s+desktop)[\s!?.]*$`),
		tpl(`^(welche|was für)\s+(?:dateien|ordner|verzeichnisse|dokumente)\s+(?:gibt es|sind|befinden sich)\s+(?:in|dort|darin)\s*(.+)$`, 2),
		tpl(`^(kannst\s+du\s+mir\s+)?(?:zusammenfassen|zeigen|zeig|liste|list|ls)\s+(?:was\s+)?(?:sich\s+)?(?:in\s+diesem\s+ordner|in\s+diesem\s+verzeichnis|in\s+diesem\s+pfad|auf\s+meinem\s+desktop|auf\s+dem\s+desktop)\s+(?:befindet|befidnet|befidet|befindt|befinet|ist|sind)\s*(.+)?$`, 2),
		tpl(`^(zeige|zeig|liste|list|ls)\s+(.+)$`, 2),
		tpl(`^(zeige|zeig|liste|list|ls)$`),
	}
	fsNavigateTemplates = []template{
		tpl(`^(navigiere|navigier|gehe|geh|cd|wechsel|wechsle)\s+(?:zu|nach|in|in das|in den|in die)\s+(.+)$`, 2),
		tpl(`^(navigiere|navigier|gehe|geh|cd|wechsel|wechsle)\s+(.+)$`, 2),
	}
	fsWhereTemplates = []template{
		tpl(`^(wo\s+bin\s+ich|pwd|aktuelles\s+verzeichnis|aktueller\s+ordner)$`),
	}
	fsTreeTemplates = []template{
		tpl(`^(baum|tree|struktur|verzeichnisstruktur|zeige struktur)\s+(?:von|des|der|die)\s*(.+)$`, 2),
		tpl(`^(baum|tree|struktur|verzeichnisstruktur|zeige struktur)\s+(.+)$`, 2),
		tpl(`^(baum|tree|struktur|verzeichnisstruktur|zeige struktur)$`),
	}
	fsCreateDirTemplates = []template{
		tpl(`^(erstelle|erstell|lege an|anlegen|mkdir)\s+(?:ein\s+)?(?:verzeichnis|ordner|ordner namens|verzeichnis namens)\s+(.+)$`, 2),
		tpl(`^(erstelle|erstell|lege an|anlegen|mkdir)\s+(?!.*datei)(.+)$`, 2),
	}
	fsCreateFileTemplates = []template{
		tpl(`^(erstelle|erstell|lege an|anlegen|touch)\s+(?:eine\s+)?(?:datei|datei namens)\s+(.+)$`, 2),
		tpl(`^touch\s+(.+)$`, 1),
	}
	fsMoveTemplates = []template{
		tpl(`^(verschiebe|verschieb|move|mv|umbenennen|rename)\s+(.+)\s+(?:nach|zu|in)\s+(.+)$`, 2, 3),
		tpl(`^(move|mv|rename)\s+("[^"]+"|\S+)\s+("[^"]+"|\S+)$`, 2, 3),
	}
	fsCopyTemplates = []template{
		tpl(`^(kopiere|kopier|copy|cp)\s+(.+)\s+(?:nach|zu|in)\s+(.+)$`, 2, 3),
		tpl(`^(copy|cp)\s+("[^"]+"|\S+)\s+("[^"]+"|\S+)$`, 2, 3),
	}
	fsDeleteTemplates = []template{
		tpl(`^(lösche|lösch|delete|rm|entferne|entfern)\s+(?:die\s+)?(?:datei|ordner|verzeichnis)\s+(.+)$`, 2),
		tpl(`^(lösche|lösch|delete|rm|entferne|entfern)\s+(.+)$`, 2),
	}
	// Captures: source, destination.
	fsOrganizeTemplates = []template{
		tpl(`^(organisiere|organisier|strukturiere|strukturier)\s+(?:die\s+)?(?:(?:dokumente|dateien)\s+(?:in|von|des|der|die)\s*)?(.+?)\s+(nach themen|nach kategorien|mit wissen|intelligent)\s+(?:nach|in|zu)\s+(.+)$`, 2, 4),
		tpl(`^(organisiere|organisier|strukturiere|strukturier)\s+(?:die\s+)?(?:dokumente|dateien|desktop)\s+(?:in|von|des|der|die)\s*(.+)\s+(?:nach|nach themen|nach kategorien|mit wissen|intelligent)$`, 2),
		tpl(`^(organisiere|organisier|strukturiere|strukturier)\s+(.+)\s+(?:nach|nach themen|nach kategorien|mit wissen|intelligent)$`, 2),
	}
	fsTidyTemplates = []template{
		tpl(`^(räume|räum)\s+(?:bitte\s+)?(?:auf(?:\s+den\s+desktop)?|den\s+desktop|das\s+verzeichnis)\s*(.+)?$`, 2),
	}
	fsFindSimilarTemplates = []template{
		tpl(`^(finde|find|suche|such)\s+(?:ähnliche|ähnliche dateien|ähnliche dokumente)\s+(?:zu|von|für)\s+(.+)$`, 2),
		tpl(`^(ähnliche|ähnliche dateien|ähnliche dokumente)\s+(?:zu|von|für)\s+(.+)$`, 2),
	}
)
