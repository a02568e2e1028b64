// Package fsops implements the filesystem primitives behind the chat
// filesystem commands.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("path not found")
	ErrAlreadyExists    = errors.New("path already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotDirectory     = errors.New("not a directory")
)

// DefaultTreeDepth is the depth Tree descends to by default.
const DefaultTreeDepth = 3

// Entry is one item of a directory listing.
type Entry struct {
	Name string
	Path string
	// Size is the file size in bytes. Directories report 0.
	Size int64
	// ItemCount is the number of direct children of a directory, -1 if
	// unreadable. Files report 0.
	ItemCount int
}

// Listing is the content of one directory, sorted case-insensitively.
type Listing struct {
	Path  string
	Dirs  []Entry
	Files []Entry
}

// FS performs filesystem operations on absolute paths.
type FS struct {
	logger *zap.Logger
}

// New creates an FS.
func New(logger *zap.Logger) *FS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FS{logger: logger}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Resolve turns a path as typed in chat into an absolute path: "~" is
// expanded and relative paths are joined to cwd.
func Resolve(cwd, raw string) string {
	p := ExpandHome(strings.TrimSpace(raw))
	if p == "" {
		return filepath.Clean(cwd)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	return filepath.Clean(p)
}

// mapErr translates os errors to the package sentinels.
func mapErr(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, path, ErrNotFound)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s %s: %w", op, path, ErrAlreadyExists)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s %s: %w", op, path, ErrPermissionDenied)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}

func (f *FS) requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return mapErr("stat", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return nil
}

// List returns the non-hidden entries of a directory.
func (f *FS) List(path string) (*Listing, error) {
	if err := f.requireDir(path); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, mapErr("list", path, err)
	}

	listing := &Listing{Path: path}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		full := filepath.Join(path, e.Name())
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		if info.IsDir() {
			count := -1
			if children, err := os.ReadDir(full); err == nil {
				count = len(children)
			}
			listing.Dirs = append(listing.Dirs, Entry{Name: e.Name(), Path: full, ItemCount: count})
		} else if info.Mode().IsRegular() {
			listing.Files = append(listing.Files, Entry{Name: e.Name(), Path: full, Size: info.Size()})
		}
	}

	byName := func(es []Entry) func(i, j int) bool {
		return func(i, j int) bool { return strings.ToLower(es[i].Name) < strings.ToLower(es[j].Name) }
	}
	sort.Slice(listing.Dirs, byName(listing.Dirs))
	sort.Slice(listing.Files, byName(listing.Files))

	return listing, nil
}

// Navigate checks that path is a directory and returns it cleaned.
// The caller owns the session directory and updates it.
func (f *FS) Navigate(path string) (string, error) {
	if err := f.requireDir(path); err != nil {
		return "", err
	}
	f.logger.Info("navigated", zap.String("path", path))
	return filepath.Clean(path), nil
}

// Tree renders the directory tree below path, hidden entries skipped.
func (f *FS) Tree(path string, maxDepth int) ([]string, error) {
	if err := f.requireDir(path); err != nil {
		return nil, err
	}
	var lines []string
	f.tree(path, maxDepth, 0, &lines)
	return lines, nil
}

func (f *FS) tree(path string, maxDepth, depth int, lines *[]string) {
	prefix := strings.Repeat("  ", depth)

	entries, err := os.ReadDir(path)
	if err != nil {
		*lines = append(*lines, prefix+"⚠️ Keine Berechtigung")
		return
	}

	var visible []fs.DirEntry
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			visible = append(visible, e)
		}
	}
	// Directories first, then by name.
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsDir() != visible[j].IsDir() {
			return visible[i].IsDir()
		}
		return strings.ToLower(visible[i].Name()) < strings.ToLower(visible[j].Name())
	})

	for i, e := range visible {
		connector := "├── "
		if i == len(visible)-1 {
			connector = "└── "
		}
		if e.IsDir() {
			*lines = append(*lines, prefix+connector+e.Name()+"/")
			if depth < maxDepth {
				f.tree(filepath.Join(path, e.Name()), maxDepth, depth+1, lines)
			}
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		*lines = append(*lines, fmt.Sprintf("%s%s%s (%s)", prefix, connector, e.Name(), FormatSize(size)))
	}
}

// CreateDir creates path and its parents. An existing directory is not an
// error; an existing file is.
func (f *FS) CreateDir(path string) error {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("create dir %s: %w", path, ErrAlreadyExists)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return mapErr("create dir", path, err)
	}
	f.logger.Info("directory created", zap.String("path", path))
	return nil
}

// CreateFile creates a new file with content. Parents are created.
func (f *FS) CreateFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return mapErr("create file", path, err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return mapErr("create file", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		return mapErr("create file", path, err)
	}
	f.logger.Info("file created", zap.String("path", path))
	return nil
}

// Move renames src to dst, copying across devices when needed.
func (f *FS) Move(src, dst string) error {
	if _, err := os.Lstat(src); err != nil {
		return mapErr("move", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return mapErr("move", dst, err)
	}

	err := os.Rename(src, dst)
	if errors.Is(err, syscall.EXDEV) {
		if err := f.Copy(src, dst); err != nil {
			return err
		}
		err = os.RemoveAll(src)
	}
	if err != nil {
		return mapErr("move", src, err)
	}

	f.logger.Info("moved", zap.String("from", src), zap.String("to", dst))
	return nil
}

// Copy copies a file, or a directory tree, to dst.
func (f *FS) Copy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return mapErr("copy", src, err)
	}

	if info.IsDir() {
		err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			target := filepath.Join(dst, rel)
			if d.IsDir() {
				return os.MkdirAll(target, 0755)
			}
			if !d.Type().IsRegular() {
				return nil
			}
			return copyFile(p, target)
		})
	} else {
		err = copyFile(src, dst)
	}
	if err != nil {
		return mapErr("copy", src, err)
	}

	f.logger.Info("copied", zap.String("from", src), zap.String("to", dst))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// Delete removes a file or a whole directory tree.
func (f *FS) Delete(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return mapErr("delete", path, err)
	}
	if err := os.RemoveAll(path); err != nil {
		return mapErr("delete", path, err)
	}
	f.logger.Info("deleted", zap.String("path", path))
	return nil
}

// FormatSize renders a byte count as "12.3 KB".
func FormatSize(size int64) string {
	s := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if s < 1024 {
			return fmt.Sprintf("%.1f %s", s, unit)
		}
		s /= 1024
	}
	return fmt.Sprintf("%.1f TB", s)
}
