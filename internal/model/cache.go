package model

import (
	"fmt"
	"path/filepath"
)

// CacheConfig locates the trigger-state cache and bounds its rotation.
type CacheConfig struct {
	Directory        string `yaml:"directory"`
	FileName         string `yaml:"file_name"`
	MaxFiles         int    `yaml:"max_files"`
	MaxFileSizeBytes int64  `yaml:"max_file_size_bytes"`
}

// Path returns the active cache file.
func (c CacheConfig) Path() string {
	return filepath.Join(c.Directory, c.FileName)
}

// Validate checks the rotation bounds.
func (c CacheConfig) Validate() error {
	if c.FileName == "" {
		return fmt.Errorf("cache.file_name is required")
	}
	if c.MaxFiles < 1 {
		return fmt.Errorf("cache.max_files must be >= 1, got %d", c.MaxFiles)
	}
	if c.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("cache.max_file_size_bytes must be positive, got %d", c.MaxFileSizeBytes)
	}
	return nil
}
