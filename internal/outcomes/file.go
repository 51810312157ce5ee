package outcomes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	logFileMode = 0o644
	logDirMode  = 0o755
)

// FileLog appends success and failure lines to two separate files. Existing
// content is never truncated or rewritten.
type FileLog struct {
	mu      sync.Mutex
	success *os.File
	failure *os.File
}

var _ Recorder = (*FileLog)(nil)

func OpenFileLog(successPath, failurePath string) (*FileLog, error) {
	s, err := openAppend(successPath)
	if err != nil {
		return nil, err
	}
	f, err := openAppend(failurePath)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return &FileLog{success: s, failure: f}, nil
}

func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, logDirMode); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return f, nil
}

// Record writes the whole line with a single Write so concurrent records
// never interleave. The append does not depend on ctx.
func (l *FileLog) Record(_ context.Context, r Record) error {
	dst := l.failure
	if r.Status == StatusSuccess {
		dst = l.success
	}

	line := []byte(Line(r) + "\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := dst.Write(line); err != nil {
		return fmt.Errorf("append %s: %w", dst.Name(), err)
	}
	return nil
}

func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err1 := l.success.Close()
	err2 := l.failure.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
