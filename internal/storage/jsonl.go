package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"antibtc/internal/model"
)

// JsonlSink writes event records and snapshots to JSONL files.
type JsonlSink struct {
	eventsPath    string
	snapshotsPath string
	mu            sync.Mutex
}

func NewJsonlSink(eventsPath, snapshotsPath string) *JsonlSink {
	return &JsonlSink{eventsPath: eventsPath, snapshotsPath: snapshotsPath}
}

// PutEvents appends a batch of event records as JSON lines.
func (s *JsonlSink) PutEvents(_ context.Context, events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	lines := make([]any, 0, len(events))
	for _, event := range events {
		lines = append(lines, event)
	}
	return s.appendLines(s.eventsPath, lines)
}

// PutSnapshots appends a batch of pool snapshots as JSON lines.
func (s *JsonlSink) PutSnapshots(_ context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	if s.snapshotsPath == "" {
		return nil
	}

	lines := make([]any, 0, len(snapshots))
	for _, snapshot := range snapshots {
		lines = append(lines, snapshot)
	}
	return s.appendLines(s.snapshotsPath, lines)
}

func (s *JsonlSink) appendLines(path string, lines []any) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range lines {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
