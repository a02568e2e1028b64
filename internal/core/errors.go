package core

import (
	"errors"
	"fmt"

	"github.com/Lin-Jiong-HDU/wissen/internal/fsops"
	"github.com/Lin-Jiong-HDU/wissen/internal/ingestion"
	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
)

var (
	// ErrPathNotRecognized means a command matched but carries no usable path.
	ErrPathNotRecognized = errors.New("path not recognized")
	// ErrMissingArgument means a required argument such as a move
	// destination or a collection name is empty.
	ErrMissingArgument = errors.New("missing argument")
)

// ExternalError wraps a failure of a collaborator: the filesystem, the
// knowledge store, the ingestion pipeline or the language model.
// Path is the path the operation was applied to, if any.
type ExternalError struct {
	Op   string
	Path string
	Err  error
}

func (e *ExternalError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

func external(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalError{Op: op, Path: path, Err: err}
}

// describe renders err as the German status line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, ErrPathNotRecognized):
		return "❌ Pfad fehlt"
	case errors.Is(err, ErrMissingArgument):
		return "❌ " + argumentName(err) + " fehlt"
	case errors.Is(err, fsops.ErrNotFound):
		return "❌ Pfad nicht gefunden: " + detail(err)
	case errors.Is(err, fsops.ErrAlreadyExists):
		return "❌ Existiert bereits: " + detail(err)
	case errors.Is(err, fsops.ErrPermissionDenied):
		return "❌ Keine Berechtigung: " + detail(err)
	case errors.Is(err, fsops.ErrNotDirectory):
		return "❌ Kein Verzeichnis: " + detail(err)
	case errors.Is(err, knowledge.ErrCollectionNotFound):
		return "❌ Wissensdatenbank nicht gefunden"
	case errors.Is(err, knowledge.ErrActiveCollection):
		return "❌ Die aktive Wissensdatenbank kann nicht gelöscht werden. Wechsle zuerst zu einer anderen."
	case errors.Is(err, knowledge.ErrInvalidName):
		return "❌ Ungültiger Name für eine Wissensdatenbank"
	case errors.Is(err, ingestion.ErrUnsupported):
		return "❌ Dateityp wird nicht unterstützt: " + detail(err)
	}
	return "❌ Fehler: " + err.Error()
}

// missing reports which argument was empty.
type missing struct {
	what string
}

func (m missing) Error() string { return m.what + ": " + ErrMissingArgument.Error() }
func (m missing) Is(target error) bool {
	return target == ErrMissingArgument
}

func argumentName(err error) string {
	var m missing
	if errors.As(err, &m) {
		return m.what
	}
	return "Argument"
}

// detail names the path an ExternalError is about.
func detail(err error) string {
	var ext *ExternalError
	if errors.As(err, &ext) && ext.Path != "" {
		return ext.Path
	}
	return err.Error()
}
