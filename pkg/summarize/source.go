package summarize

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileThreadSource reads threads from a JSONL export, one thread per line:
//
//	{"id": "...", "title": "...", "messages": ["...", "..."]}
type FileThreadSource struct {
	Path string
}

type threadRecord struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Messages []string `json:"messages"`
}

// Threads loads every valid thread record from the file.
func (s *FileThreadSource) Threads(ctx context.Context) ([]Thread, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open thread export %s: %w", s.Path, err)
	}
	defer f.Close()

	var threads []Thread
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec threadRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("invalid thread record at line %d: %w", line, err)
		}
		if rec.ID == "" {
			continue
		}
		threads = append(threads, Thread(rec))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read thread export: %w", err)
	}
	return threads, nil
}
