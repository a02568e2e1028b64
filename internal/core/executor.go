// Package core executes routed chat commands against the session.
package core

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/conversation"
	"github.com/Lin-Jiong-HDU/wissen/internal/core/security"
	"github.com/Lin-Jiong-HDU/wissen/internal/fsops"
	"github.com/Lin-Jiong-HDU/wissen/internal/ingestion"
	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
	"github.com/Lin-Jiong-HDU/wissen/internal/organizer"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

// Answerer writes the conversational reply for greetings, questions about
// the assistant and everything no command matched.
type Answerer interface {
	Answer(ctx context.Context, mode conversation.Mode, text string) (string, error)
}

// Authorizer decides on commands the security policy wants confirmed.
// When it refuses, the returned text is shown instead of a result.
type Authorizer interface {
	Authorize(ctx context.Context, cmd router.Command, check *security.CheckResult) (bool, string)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, cmd router.Command, check *security.CheckResult) (bool, string)

func (f AuthorizerFunc) Authorize(ctx context.Context, cmd router.Command, check *security.CheckResult) (bool, string) {
	return f(ctx, cmd, check)
}

// AllowAll approves everything. Tasks approved in the queue run with it.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, router.Command, *security.CheckResult) (bool, string) {
	return true, ""
})

// CollectionManager is the collection bookkeeping of the knowledge store.
type CollectionManager interface {
	Create(ctx context.Context, name string, vectorSize int) (bool, error)
	List(ctx context.Context) ([]knowledge.CollectionInfo, error)
	Delete(ctx context.Context, name string, force bool) error
	Switch(ctx context.Context, name string) error
	Info(ctx context.Context, name string) (knowledge.CollectionInfo, error)
}

// Indexer ingests documents into the active collection.
type Indexer interface {
	IngestFile(ctx context.Context, path string) (ingestion.Stats, error)
	IngestDirectory(ctx context.Context, dir string, recursive bool) (ingestion.Stats, error)
}

// Planner proposes a theme-based reorganisation.
type Planner interface {
	Plan(ctx context.Context, src, dest string) (*organizer.Plan, error)
}

// KnowledgePlanner consults the indexed knowledge about documents.
type KnowledgePlanner interface {
	SuggestStructure(ctx context.Context, dir string) ([]organizer.Suggestion, error)
	FindSimilar(ctx context.Context, path string, topK int, minScore float64) ([]organizer.Similar, error)
}

// Config wires the collaborators of an Executor. Only FS and Security have
// defaults; a command whose collaborator is missing reports that it is
// unavailable.
type Config struct {
	FS          *fsops.FS
	Security    *security.SecurityController
	Authorizer  Authorizer
	Collections CollectionManager
	Indexer     Indexer
	Themes      Planner
	Knowledge   KnowledgePlanner
	Answerer    Answerer
	// VectorSize is used for collections created from chat.
	VectorSize int
	// Progress receives status lines while long operations run.
	Progress io.Writer
	Logger   *zap.Logger
}

// Executor runs commands for one session. It implements router.Handler.
type Executor struct {
	session *storage.Session
	cfg     Config
	logger  *zap.Logger
}

var _ router.Handler = (*Executor)(nil)

// NewExecutor creates an executor bound to session.
func NewExecutor(session *storage.Session, cfg Config) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.FS == nil {
		cfg.FS = fsops.New(cfg.Logger)
	}
	if cfg.Security == nil {
		cfg.Security = security.NewSecurityController(nil)
	}
	if cfg.Progress == nil {
		cfg.Progress = io.Discard
	}
	return &Executor{session: session, cfg: cfg, logger: cfg.Logger}
}

// Execute runs cmd and returns the status shown to the user. Failures are
// reported in the status; Execute never panics.
func (e *Executor) Execute(ctx context.Context, cmd router.Command) (status string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Command panicked",
				zap.String("intent", string(cmd.Intent())),
				zap.Any("panic", r))
			status = fmt.Sprintf("❌ Interner Fehler: %v", r)
		}
	}()

	e.logger.Debug("Executing command",
		zap.String("intent", string(cmd.Intent())),
		zap.String("summary", cmd.Summary()),
		zap.String("cwd", e.session.Cwd()))
	return cmd.Dispatch(ctx, e)
}

func (e *Executor) resolve(p router.Path) string {
	return fsops.Resolve(e.session.Cwd(), p.Normalized)
}

func (e *Executor) progress(format string, args ...any) {
	fmt.Fprintf(e.cfg.Progress, format+"\n", args...)
}

// guard runs the security check for cmd. When the command may not run,
// the returned status explains why.
func (e *Executor) guard(ctx context.Context, cmd router.Command) (string, bool) {
	check := e.cfg.Security.CheckCommand(cmd, e.session.Cwd())
	if !check.Allowed {
		e.logger.Warn("Command denied",
			zap.String("summary", cmd.Summary()),
			zap.String("reason", check.Reason))
		return "⛔ " + check.Reason, false
	}
	if !check.RequiresAuth {
		return "", true
	}
	if e.cfg.Authorizer == nil {
		return "⚠️ Bestätigung erforderlich: " + check.Warning, false
	}
	ok, msg := e.cfg.Authorizer.Authorize(ctx, cmd, check)
	if !ok {
		e.logger.Info("Command not authorized", zap.String("summary", cmd.Summary()))
		if msg == "" {
			msg = "🚫 Abgebrochen"
		}
		return msg, false
	}
	return "", true
}

func (e *Executor) HandleListDir(ctx context.Context, c router.ListDir) string {
	dir := e.session.Cwd()
	if c.Path != nil {
		dir = e.resolve(*c.Path)
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	listing, err := e.cfg.FS.List(dir)
	if err != nil {
		return describe(external("auflisten", dir, err))
	}
	return formatListing(listing)
}

func formatListing(l *fsops.Listing) string {
	lines := []string{fmt.Sprintf("📁 Inhalt von %s:", l.Path), ""}

	if len(l.Dirs) > 0 {
		lines = append(lines, "📂 Verzeichnisse:")
		for _, d := range l.Dirs {
			count := "?"
			if d.ItemCount >= 0 {
				count = fmt.Sprint(d.ItemCount)
			}
			lines = append(lines, fmt.Sprintf("   📂 %s/ (%s Einträge)", d.Name, count))
		}
	}

	if len(l.Files) > 0 {
		if len(l.Dirs) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "📄 Dateien:")
		for _, f := range l.Files {
			lines = append(lines, fmt.Sprintf("   📄 %s (%s)", f.Name, fsops.FormatSize(f.Size)))
		}
	}

	if len(l.Dirs) == 0 && len(l.Files) == 0 {
		lines = append(lines, "   (leer)")
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) HandleNavigate(ctx context.Context, c router.Navigate) string {
	if c.Path.Normalized == "" {
		return describe(ErrPathNotRecognized)
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	target := e.resolve(c.Path)
	dir, err := e.cfg.FS.Navigate(target)
	if err != nil {
		return describe(external("navigieren", target, err))
	}
	e.session.SetCwd(dir)
	return "✅ Navigiert zu: " + dir
}

func (e *Executor) HandleWhere(_ context.Context, _ router.Where) string {
	return "📂 Aktuelles Verzeichnis: " + e.session.Cwd()
}

func (e *Executor) HandleTree(ctx context.Context, c router.Tree) string {
	dir := e.session.Cwd()
	if c.Path != nil {
		dir = e.resolve(*c.Path)
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	lines, err := e.cfg.FS.Tree(dir, fsops.DefaultTreeDepth)
	if err != nil {
		return describe(external("baum", dir, err))
	}
	if len(lines) == 0 {
		return "⚠️ Keine Einträge gefunden"
	}
	return "🌳 " + dir + "/\n" + strings.Join(lines, "\n")
}

func (e *Executor) HandleCreateDir(ctx context.Context, c router.CreateDir) string {
	if c.Path.Normalized == "" {
		return describe(ErrPathNotRecognized)
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	path := e.resolve(c.Path)
	if err := e.cfg.FS.CreateDir(path); err != nil {
		return describe(external("verzeichnis erstellen", path, err))
	}
	return "✅ Verzeichnis erstellt: " + path
}

func (e *Executor) HandleCreateFile(ctx context.Context, c router.CreateFile) string {
	if c.Path.Normalized == "" {
		return describe(ErrPathNotRecognized)
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	path := e.resolve(c.Path)
	if err := e.cfg.FS.CreateFile(path, ""); err != nil {
		return describe(external("datei erstellen", path, err))
	}
	return "✅ Datei erstellt: " + path
}

func (e *Executor) HandleMove(ctx context.Context, c router.Move) string {
	if c.Source.Normalized == "" || c.Dest.Normalized == "" {
		return describe(missing{"Quelle oder Ziel"})
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	src := e.resolve(c.Source)
	dst := destination(src, e.resolve(c.Dest))
	if err := e.cfg.FS.Move(src, dst); err != nil {
		return describe(external("verschieben", src, err))
	}
	return fmt.Sprintf("✅ Verschoben: %s -> %s", src, dst)
}

func (e *Executor) HandleCopy(ctx context.Context, c router.Copy) string {
	if c.Source.Normalized == "" || c.Dest.Normalized == "" {
		return describe(missing{"Quelle oder Ziel"})
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	src := e.resolve(c.Source)
	dst := destination(src, e.resolve(c.Dest))
	if err := e.cfg.FS.Copy(src, dst); err != nil {
		return describe(external("kopieren", src, err))
	}
	return fmt.Sprintf("✅ Kopiert: %s -> %s", src, dst)
}

func (e *Executor) HandleDelete(ctx context.Context, c router.Delete) string {
	if c.Path.Normalized == "" {
		return describe(ErrPathNotRecognized)
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	path := e.resolve(c.Path)
	if err := e.cfg.FS.Delete(path); err != nil {
		return describe(external("löschen", path, err))
	}
	return "✅ Gelöscht: " + path
}
