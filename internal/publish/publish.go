// Package publish writes tasks out as markdown files.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"taskdesk-cli/internal/model"
)

type WriteOptions struct {
	RenderOptions
	Title     string
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteTask writes <toDir>/tasks/<id>.md.
func WriteTask(t model.Task, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir, err := cleanDir(toDir)
	if err != nil {
		return WriteResult{}, err
	}
	p, err := writeTaskPage(t, toDir, opt)
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{p}}, nil
}

// WriteTasks writes an index.md plus one page per task. Completed tasks are skipped unless
// IncludeCompleted is set.
func WriteTasks(ts []model.Task, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir, err := cleanDir(toDir)
	if err != nil {
		return WriteResult{}, err
	}
	if err := os.MkdirAll(filepath.Join(toDir, "tasks"), 0o755); err != nil {
		return WriteResult{}, err
	}

	indexPath := filepath.Join(toDir, "index.md")
	if err := writeFile(indexPath, []byte(RenderIndexMarkdown(opt.Title, ts, opt.RenderOptions)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	// Stop on the first failure; earlier files stay written.
	written := []string{indexPath}
	for _, t := range ts {
		if t.Completed && !opt.IncludeCompleted {
			continue
		}
		p, err := writeTaskPage(t, toDir, opt)
		if err != nil {
			return WriteResult{Written: written}, err
		}
		written = append(written, p)
	}
	return WriteResult{Written: written}, nil
}

func writeTaskPage(t model.Task, toDir string, opt WriteOptions) (string, error) {
	outDir := filepath.Join(toDir, "tasks")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(toDir, filepath.FromSlash(taskPath(t.ID)))
	if err := writeFile(p, []byte(RenderTaskMarkdown(t, opt.RenderOptions)), opt.Overwrite); err != nil {
		return "", err
	}
	return p, nil
}

func cleanDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("missing --to")
	}
	return filepath.Clean(dir), nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
