// Package logging builds the service logger: JSON lines to stdout and to a
// daily log file with bounded retention.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Dir           string
	RetentionDays int
	Level         string
}

// New returns the logger and a cleanup func that flushes and closes the log file.
// When the log directory cannot be used the logger writes to stdout only and
// the error is returned alongside it.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Level != "" {
		if parsed, err := zapcore.ParseLevel(opts.Level); err == nil {
			level.SetLevel(parsed)
		}
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	stdout := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	file, err := NewDailyFile(opts.Dir, opts.RetentionDays)
	if err != nil {
		logger := zap.New(stdout, zap.AddCaller())
		return logger, func() { _ = logger.Sync() }, err
	}
	logger := zap.New(zapcore.NewTee(stdout, zapcore.NewCore(encoder, file, level)), zap.AddCaller())
	return logger, func() {
		_ = logger.Sync()
		_ = file.Close()
	}, nil
}

// DailyFile is a zapcore.WriteSyncer writing to app-YYYY-MM-DD.log. It switches
// files on the first write of a new day and removes files older than the
// retention window.
type DailyFile struct {
	mu            sync.Mutex
	dir           string
	retentionDays int
	now           func() time.Time
	date          string
	file          *os.File
}

func NewDailyFile(dir string, retentionDays int) (*DailyFile, error) {
	if dir == "" {
		dir = "storage/logs"
	}
	if retentionDays < 1 {
		retentionDays = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &DailyFile{dir: dir, retentionDays: retentionDays, now: time.Now}
	if err := d.rotate(d.now().Format("2006-01-02")); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if date := d.now().Format("2006-01-02"); date != d.date {
		if err := d.rotate(date); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func (d *DailyFile) rotate(date string) error {
	file, err := openLogFile(d.dir, date)
	if err != nil {
		return err
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = file
	d.date = date
	cleanupOldLogs(d.dir, d.retentionDays, d.now())
	return nil
}

func openLogFile(logDir, date string) (*os.File, error) {
	filename := filepath.Join(logDir, fmt.Sprintf("app-%s.log", date))
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func cleanupOldLogs(logDir string, retentionDays int, now time.Time) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	today, _ := time.Parse("2006-01-02", now.Format("2006-01-02"))
	cutoff := today.AddDate(0, 0, -(retentionDays - 1))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		logDate, err := time.Parse("2006-01-02", datePart)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}
