package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rubiojr/mcfc/datapack"
)

// Source walks the namespace's functions directory in lexical order and
// yields one scope per source file, named by its slash separated path
// relative to the directory, without extension. Files that cannot be read
// are logged and skipped; a missing functions directory ends the stream
// with an error.
func Source(ns *datapack.Namespace, log *slog.Logger) Stream {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(yield func(*Scope, error) bool) {
		root := ns.FunctionsDir()
		stopped := false
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				log.Warn("skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || filepath.Ext(path) != datapack.SourceExt {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warn("skipping unreadable source", "path", path, "error", err)
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(strings.TrimSuffix(rel, datapack.SourceExt))
			log.Debug("source loaded", "function", ns.Reference(name), "bytes", len(data))
			if !yield(NewScope(ns, name, string(data)), nil) {
				stopped = true
				return fs.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			if errors.Is(err, fs.ErrNotExist) {
				err = fmt.Errorf("namespace %s has no functions directory %s: %w", ns.Name, root, err)
			} else {
				err = fmt.Errorf("reading functions of %s: %w", ns.Name, err)
			}
			yield(nil, err)
		}
	}
}
