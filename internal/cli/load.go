package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkoval/attestor/internal/model"
)

// maxFileBytes caps how much of any single file is read into a unit.
const maxFileBytes = 1_000_000

// loadSubmission reads every regular file under dir into a Submission.
// Hidden files, common dependency directories, and files that are not
// valid UTF-8 text are skipped.
func loadSubmission(dir, author string) (*model.Submission, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat submission: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("submission path is not a directory: %s", dir)
	}

	sub := &model.Submission{
		ID:        uuid.NewString(),
		Author:    author,
		CreatedAt: time.Now().UTC(),
	}

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if skipDir(name) && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", path, err)
			return nil
		}
		if len(data) > maxFileBytes {
			data = data[:maxFileBytes]
		}
		if !looksLikeText(data) {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = name
		}
		sub.Units = append(sub.Units, model.ContentUnit{
			FileName: filepath.ToSlash(rel),
			Raw:      string(data),
			Kind:     model.KindFromFileName(name),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk submission: %w", err)
	}

	if len(sub.Units) == 0 {
		return nil, fmt.Errorf("no readable text files under %s", dir)
	}
	return sub, nil
}

func skipDir(name string) bool {
	switch name {
	case "node_modules", "vendor", "__pycache__", "target", "dist", "build":
		return true
	}
	return strings.HasPrefix(name, ".")
}

// looksLikeText rejects files with NUL bytes in the first 8KB.
func looksLikeText(data []byte) bool {
	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	for _, b := range probe {
		if b == 0 {
			return false
		}
	}
	return len(data) > 0
}
