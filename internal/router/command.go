package router

import (
	"context"
	"fmt"
)

// Intent is the classified purpose of one utterance.
type Intent string

const (
	IntentGreeting   Intent = "greeting"
	IntentMeta       Intent = "meta"
	IntentFilesystem Intent = "filesystem"
	IntentCollection Intent = "collection"
	IntentIndex      Intent = "index"
	IntentRAG        Intent = "rag"
)

// Command is the typed result of routing one utterance.
// The set of variants is closed: only this package can implement it.
type Command interface {
	Intent() Intent
	// Summary is a short German description for prompts and the task queue.
	Summary() string
	// Dispatch calls the Handler method matching the variant.
	Dispatch(ctx context.Context, h Handler) string

	command()
}

// Handler consumes every Command variant. Adding a variant adds a method
// here, so every implementation stops compiling until it handles it.
type Handler interface {
	HandleListDir(ctx context.Context, c ListDir) string
	HandleNavigate(ctx context.Context, c Navigate) string
	HandleWhere(ctx context.Context, c Where) string
	HandleTree(ctx context.Context, c Tree) string
	HandleCreateDir(ctx context.Context, c CreateDir) string
	HandleCreateFile(ctx context.Context, c CreateFile) string
	HandleMove(ctx context.Context, c Move) string
	HandleCopy(ctx context.Context, c Copy) string
	HandleDelete(ctx context.Context, c Delete) string
	HandleOrganize(ctx context.Context, c Organize) string
	HandleFindSimilar(ctx context.Context, c FindSimilar) string
	HandleCollectionCreate(ctx context.Context, c CollectionCreate) string
	HandleCollectionDelete(ctx context.Context, c CollectionDelete) string
	HandleCollectionSwitch(ctx context.Context, c CollectionSwitch) string
	HandleCollectionInfo(ctx context.Context, c CollectionInfo) string
	HandleCollectionList(ctx context.Context, c CollectionList) string
	HandleIndex(ctx context.Context, c Index) string
	HandleGreeting(ctx context.Context, c Greeting) string
	HandleMetaQuestion(ctx context.Context, c MetaQuestion) string
	HandleRagFallback(ctx context.Context, c RagFallback) string
}

// ListDir lists a directory. A nil Path means the session directory.
type ListDir struct {
	Path *Path
}

// Navigate changes the session directory.
type Navigate struct {
	Path Path
}

// Where reports the session directory.
type Where struct{}

// Tree prints a directory tree. A nil Path means the session directory.
type Tree struct {
	Path *Path
}

type CreateDir struct {
	Path Path
}

type CreateFile struct {
	Path Path
}

type Move struct {
	Source Path
	Dest   Path
}

type Copy struct {
	Source Path
	Dest   Path
}

type Delete struct {
	Path Path
}

// Organize sorts the files of Source into Dest.
// Tidy selects the extension-based pass; otherwise the theme or
// knowledge organizer runs. DryRun is set by the confirmation gate.
type Organize struct {
	Source   Path
	Dest     *Path
	Tidy     bool
	DryRun   bool
	RawQuery string
}

type FindSimilar struct {
	Path Path
}

type CollectionCreate struct {
	Name string
}

type CollectionDelete struct {
	Name string
}

type CollectionSwitch struct {
	Name string
}

type CollectionInfo struct {
	Name string
}

type CollectionList struct{}

// Index ingests a file or directory into the active collection.
type Index struct {
	Path      Path
	Recursive bool
}

type Greeting struct {
	Text string
}

type MetaQuestion struct {
	Text string
}

// RagFallback is the result when no classifier matched.
type RagFallback struct {
	Text string
}

func (ListDir) command()          {}
func (Navigate) command()         {}
func (Where) command()            {}
func (Tree) command()             {}
func (CreateDir) command()        {}
func (CreateFile) command()       {}
func (Move) command()             {}
func (Copy) command()             {}
func (Delete) command()           {}
func (Organize) command()         {}
func (FindSimilar) command()      {}
func (CollectionCreate) command() {}
func (CollectionDelete) command() {}
func (CollectionSwitch) command() {}
func (CollectionInfo) command()   {}
func (CollectionList) command()   {}
func (Index) command()            {}
func (Greeting) command()         {}
func (MetaQuestion) command()     {}
func (RagFallback) command()      {}

func (ListDir) Intent() Intent          { return IntentFilesystem }
func (Navigate) Intent() Intent         { return IntentFilesystem }
func (Where) Intent() Intent            { return IntentFilesystem }
func (Tree) Intent() Intent             { return IntentFilesystem }
func (CreateDir) Intent() Intent        { return IntentFilesystem }
func (CreateFile) Intent() Intent       { return IntentFilesystem }
func (Move) Intent() Intent             { return IntentFilesystem }
func (Copy) Intent() Intent             { return IntentFilesystem }
func (Delete) Intent() Intent           { return IntentFilesystem }
func (Organize) Intent() Intent         { return IntentFilesystem }
func (FindSimilar) Intent() Intent      { return IntentFilesystem }
func (CollectionCreate) Intent() Intent { return IntentCollection }
func (CollectionDelete) Intent() Intent { return IntentCollection }
func (CollectionSwitch) Intent() Intent { return IntentCollection }
func (CollectionInfo) Intent() Intent   { return IntentCollection }
func (CollectionList) Intent() Intent   { return IntentCollection }
func (Index) Intent() Intent            { return IntentIndex }
func (Greeting) Intent() Intent         { return IntentGreeting }
func (MetaQuestion) Intent() Intent     { return IntentMeta }
func (RagFallback) Intent() Intent      { return IntentRAG }

func (c ListDir) Dispatch(ctx context.Context, h Handler) string  { return h.HandleListDir(ctx, c) }
func (c Navigate) Dispatch(ctx context.Context, h Handler) string { return h.HandleNavigate(ctx, c) }
func (c Where) Dispatch(ctx context.Context, h Handler) string    { return h.HandleWhere(ctx, c) }
func (c Tree) Dispatch(ctx context.Context, h Handler) string     { return h.HandleTree(ctx, c) }
func (c CreateDir) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleCreateDir(ctx, c)
}
func (c CreateFile) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleCreateFile(ctx, c)
}
func (c Move) Dispatch(ctx context.Context, h Handler) string   { return h.HandleMove(ctx, c) }
func (c Copy) Dispatch(ctx context.Context, h Handler) string   { return h.HandleCopy(ctx, c) }
func (c Delete) Dispatch(ctx context.Context, h Handler) string { return h.HandleDelete(ctx, c) }
func (c Organize) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleOrganize(ctx, c)
}
func (c FindSimilar) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleFindSimilar(ctx, c)
}
func (c CollectionCreate) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleCollectionCreate(ctx, c)
}
func (c CollectionDelete) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleCollectionDelete(ctx, c)
}
func (c CollectionSwitch) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleCollectionSwitch(ctx, c)
}
func (c CollectionInfo) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleCollectionInfo(ctx, c)
}
func (c CollectionList) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleCollectionList(ctx, c)
}
func (c Index) Dispatch(ctx context.Context, h Handler) string    { return h.HandleIndex(ctx, c) }
func (c Greeting) Dispatch(ctx context.Context, h Handler) string { return h.HandleGreeting(ctx, c) }
func (c MetaQuestion) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleMetaQuestion(ctx, c)
}
func (c RagFallback) Dispatch(ctx context.Context, h Handler) string {
	return h.HandleRagFallback(ctx, c)
}

func (c ListDir) Summary() string {
	if c.Path == nil {
		return "Verzeichnis anzeigen"
	}
	return "Verzeichnis anzeigen: " + c.Path.Normalized
}
func (c Navigate) Summary() string { return "Wechseln zu: " + c.Path.Normalized }
func (Where) Summary() string      { return "Aktuelles Verzeichnis" }
func (c Tree) Summary() string {
	if c.Path == nil {
		return "Verzeichnisstruktur"
	}
	return "Verzeichnisstruktur: " + c.Path.Normalized
}
func (c CreateDir) Summary() string  { return "Verzeichnis erstellen: " + c.Path.Normalized }
func (c CreateFile) Summary() string { return "Datei erstellen: " + c.Path.Normalized }
func (c Move) Summary() string {
	return fmt.Sprintf("Verschieben: %s -> %s", c.Source.Normalized, c.Dest.Normalized)
}
func (c Copy) Summary() string {
	return fmt.Sprintf("Kopieren: %s -> %s", c.Source.Normalized, c.Dest.Normalized)
}
func (c Delete) Summary() string { return "Löschen: " + c.Path.Normalized }
func (c Organize) Summary() string {
	mode := "nach Themen"
	if c.Tidy {
		mode = "aufräumen"
	} else if WantsKnowledge(c.RawQuery) {
		mode = "mit Wissen"
	}
	s := fmt.Sprintf("Organisieren (%s): %s", mode, c.Source.Normalized)
	if c.Dest != nil {
		s += " -> " + c.Dest.Normalized
	}
	return s
}
func (c FindSimilar) Summary() string      { return "Ähnliche Dokumente zu: " + c.Path.Normalized }
func (c CollectionCreate) Summary() string { return "Wissensdatenbank erstellen: " + c.Name }
func (c CollectionDelete) Summary() string { return "Wissensdatenbank löschen: " + c.Name }
func (c CollectionSwitch) Summary() string { return "Wissensdatenbank wechseln: " + c.Name }
func (c CollectionInfo) Summary() string   { return "Wissensdatenbank-Info: " + c.Name }
func (CollectionList) Summary() string     { return "Wissensdatenbanken auflisten" }
func (c Index) Summary() string {
	if c.Recursive {
		return "Indexieren (rekursiv): " + c.Path.Normalized
	}
	return "Indexieren: " + c.Path.Normalized
}
func (c Greeting) Summary() string     { return "Begrüßung" }
func (c MetaQuestion) Summary() string { return "Frage zum Assistenten" }
func (c RagFallback) Summary() string  { return "Frage an die Wissensdatenbank" }
