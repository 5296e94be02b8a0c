// Package status provides job status tracking and persistence.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// StatusPersistence defines the interface for job status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the status of a job
	SaveStatus(ctx context.Context, jobName string, status *SyncStatus) error

	// LoadStatus loads the status of a job.
	// Returns an empty SyncStatus if none was saved yet (first run)
	LoadStatus(ctx context.Context, jobName string) (*SyncStatus, error)

	// LoadAllStatus loads the status of every saved job
	LoadAllStatus(ctx context.Context) (map[string]*SyncStatus, error)
}

// fileStatusPersistence stores one JSON file per job under basePath
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a file-based status persistence.
// An empty basePath keeps statuses in memory only.
func NewFileStatusPersistence(basePath string) StatusPersistence {
	if basePath == "" {
		return noopStatusPersistence{}
	}
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

// SaveStatus writes the status atomically to <basePath>/<job>/status.json
func (f *fileStatusPersistence) SaveStatus(_ context.Context, jobName string, status *SyncStatus) error {
	jobDir, err := f.jobDir(jobName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(jobDir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory for job '%s': %w", jobName, err)
	}

	filePath := filepath.Join(jobDir, StatusFileName)

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status for job '%s': %w", jobName, err)
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file for job '%s': %w", jobName, err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file for job '%s': %w", jobName, err)
	}

	return nil
}

// LoadStatus reads the status of a job. A missing file yields an empty status.
func (f *fileStatusPersistence) LoadStatus(_ context.Context, jobName string) (*SyncStatus, error) {
	jobDir, err := f.jobDir(jobName)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- the path is basePath joined with a validated local job name
	data, err := os.ReadFile(filepath.Join(jobDir, StatusFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &SyncStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file for job '%s': %w", jobName, err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status for job '%s': %w", jobName, err)
	}
	return &status, nil
}

// LoadAllStatus loads every job directory under basePath. Unreadable
// statuses are skipped.
func (f *fileStatusPersistence) LoadAllStatus(ctx context.Context) (map[string]*SyncStatus, error) {
	result := make(map[string]*SyncStatus)

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read status directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		status, err := f.LoadStatus(ctx, entry.Name())
		if err != nil {
			continue
		}
		result[entry.Name()] = status
	}
	return result, nil
}

func (f *fileStatusPersistence) jobDir(jobName string) (string, error) {
	if jobName == "" || !filepath.IsLocal(jobName) || filepath.Base(jobName) != jobName {
		return "", fmt.Errorf("invalid job name %q", jobName)
	}
	return filepath.Join(f.basePath, jobName), nil
}

type noopStatusPersistence struct{}

func (noopStatusPersistence) SaveStatus(context.Context, string, *SyncStatus) error { return nil }

func (noopStatusPersistence) LoadStatus(context.Context, string) (*SyncStatus, error) {
	return &SyncStatus{}, nil
}

func (noopStatusPersistence) LoadAllStatus(context.Context) (map[string]*SyncStatus, error) {
	return map[string]*SyncStatus{}, nil
}
