package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileLoader reads a JSONL corpus artifact: one Fragment object per line,
// the shape produced by the dataset build scripts.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for a JSONL artifact.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads all fragments from the artifact.
func (l *FileLoader) Load(ctx context.Context) ([]*Fragment, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus artifact %s: %w", l.path, err)
	}
	defer f.Close()

	var fragments []*Fragment
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var fragment Fragment
		if err := json.Unmarshal(raw, &fragment); err != nil {
			return nil, fmt.Errorf("invalid fragment at %s:%d: %w", l.path, line, err)
		}
		fragments = append(fragments, &fragment)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus artifact %s: %w", l.path, err)
	}

	return fragments, nil
}
