package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mtaanifix-api/internal/logging/types"
)

// FileAdapter implements the LogAdapter interface for file output with
// size-based rotation
type FileAdapter struct {
	name        string
	config      FileConfig
	currentFile *os.File
	currentSize int64
	mu          sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath    string `yaml:"file_path"`     // path to log file
	Format      string `yaml:"format"`        // json or text
	MaxSize     int64  `yaml:"max_size"`      // max file size in bytes (0 = no rotation)
	CreateDirs  bool   `yaml:"create_dirs"`   // create parent directories if they don't exist
	SyncOnWrite bool   `yaml:"sync_on_write"` // sync after each write
}

// NewFileAdapter creates a new file adapter
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.Format == "" {
		config.Format = "json"
	}

	adapter := &FileAdapter{
		name:   name,
		config: config,
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
	}

	if err := adapter.openFile(); err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return adapter, nil
}

// Write writes a log entry to the file
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var output string
	var err error

	if a.config.Format == "text" {
		output = formatText(entry)
	} else {
		output, err = formatJSON(entry)
		if err != nil {
			return fmt.Errorf("failed to format log entry: %w", err)
		}
	}

	if a.config.MaxSize > 0 && a.currentSize+int64(len(output))+1 > a.config.MaxSize {
		if err := a.rotate(); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	n, err := fmt.Fprintln(a.currentFile, output)
	if err != nil {
		return err
	}
	a.currentSize += int64(n)

	if a.config.SyncOnWrite {
		return a.currentFile.Sync()
	}

	return nil
}

// Close closes the current log file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentFile != nil {
		return a.currentFile.Close()
	}
	return nil
}

// Health checks that the log file is writable
func (a *FileAdapter) Health() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentFile == nil {
		return fmt.Errorf("log file is not open")
	}
	return nil
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string {
	return a.name
}

func (a *FileAdapter) openFile() error {
	file, err := os.OpenFile(a.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	a.currentFile = file
	a.currentSize = info.Size()
	return nil
}

// rotate renames the current file with a timestamp suffix and opens a new one
func (a *FileAdapter) rotate() error {
	if a.currentFile != nil {
		if err := a.currentFile.Close(); err != nil {
			return err
		}
	}

	backupPath := fmt.Sprintf("%s.%s", a.config.FilePath, time.Now().Format("20060102-150405"))
	if err := os.Rename(a.config.FilePath, backupPath); err != nil {
		return err
	}

	return a.openFile()
}
