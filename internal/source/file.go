package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// defaultExtensions are the file types indexed when no explicit list is given.
var defaultExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".xml":  true,
}

// MaxFileSize caps how large a file the source will read. Larger files are
// skipped; the downstream length gate would reject them anyway.
const MaxFileSize = 2 << 20 // 2MB

// FileSource enumerates documents from a directory tree.
//
// Files are read through os.Root so symlinks cannot escape the tree, a
// .gitignore at the root is honored, and only allow-listed extensions are
// considered. Enumeration order is the lexical walk order, which is stable
// for an unchanged tree.
type FileSource struct {
	dir        string
	extensions map[string]bool
	logger     *slog.Logger
}

// NewFileSource creates a source over the directory tree at dir.
//
// extensions optionally overrides the indexed file types (e.g. [".md"]);
// nil means defaultExtensions.
func NewFileSource(dir string, extensions []string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}

	extMap := make(map[string]bool, len(defaultExtensions))
	if len(extensions) > 0 {
		for _, ext := range extensions {
			extMap[strings.ToLower(ext)] = true
		}
	} else {
		for k, v := range defaultExtensions {
			extMap[k] = v
		}
	}

	return &FileSource{dir: dir, extensions: extMap, logger: logger}
}

// Enumerate walks the tree and returns one Document per eligible file.
// Unreadable files are skipped and logged; only a broken walk is fatal.
func (s *FileSource) Enumerate(ctx context.Context) ([]Document, error) {
	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving source directory: %w", err)
	}

	root, err := os.OpenRoot(absDir)
	if err != nil {
		return nil, fmt.Errorf("opening source directory: %w", err)
	}
	defer func() {
		_ = root.Close()
	}()

	var gitIgnore *ignore.GitIgnore
	if _, err := os.Stat(filepath.Join(absDir, ".gitignore")); err == nil {
		gitIgnore, err = ignore.CompileIgnoreFile(filepath.Join(absDir, ".gitignore"))
		if err != nil {
			// A malformed .gitignore should not sink the run.
			s.logger.Warn("ignoring malformed .gitignore", "dir", absDir, "error", err)
			gitIgnore = nil
		}
	}

	var docs []Document
	err = filepath.Walk(absDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(absDir, path)
		if err != nil {
			s.logger.Warn("skipping path outside root", "path", path, "error", err)
			return nil
		}

		if gitIgnore != nil && gitIgnore.MatchesPath(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !s.extensions[ext] {
			return nil
		}
		if info.Size() > MaxFileSize {
			s.logger.Debug("skipping oversized file", "path", relPath, "size", info.Size())
			return nil
		}

		content, err := root.ReadFile(relPath)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", relPath, "error", err)
			return nil
		}

		docs = append(docs, Document{
			Name:         relPath,
			Path:         path,
			Raw:          string(content),
			Format:       formatForExt(ext),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source directory: %w", err)
	}

	s.logger.Debug("enumerated file source", "dir", absDir, "documents", len(docs))
	return docs, nil
}

func formatForExt(ext string) Format {
	switch ext {
	case ".md":
		return FormatMarkdown
	case ".html", ".htm", ".xml":
		return FormatStorage
	default:
		return FormatText
	}
}
