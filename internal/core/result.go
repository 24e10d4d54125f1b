package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/cache"
	"github.com/JonMunkholm/datacleanser/internal/logging"
)

// CleanedFileName is the name the cleaned file is saved under.
const CleanedFileName = "cleaned_data.csv"

var (
	ErrProcessData = errors.New("failed to process data")
	ErrDownload    = errors.New("failed to download file")
	ErrFeatures    = errors.New("failed to load feature suggestions")
)

// RunCleaning runs the cleaning pipeline and then loads the audit trail.
// Both calls must succeed; on any failure no data is returned.
func (s *Service) RunCleaning(ctx context.Context, b Backend, sessionID string) (*CleanOutcome, error) {
	logger := logging.WithFields(ctx, "session_id", sessionID)

	res, err := b.CleanData(ctx, sessionID, DefaultCleanOptions)
	if err != nil {
		logger.Warn("clean failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrProcessData, err)
	}
	if !res.Success {
		return nil, ErrProcessData
	}

	logs, err := b.GetAudit(ctx, sessionID)
	if err != nil {
		logger.Warn("audit fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrProcessData, err)
	}
	if logs == nil {
		logs = []api.AuditLog{}
	}

	s.put(ctx, cache.ResultKey, sessionID, res)
	logger.Info("cleaning complete",
		"rows_processed", res.Summary.RowsProcessed,
		"rows_cleaned", res.Summary.RowsCleaned,
		"transformations", len(res.Summary.Transformations),
	)

	return &CleanOutcome{Clean: res, Logs: logs}, nil
}

// Features loads feature-engineering suggestions. Failure here does not
// affect the cleaned data.
func (s *Service) Features(ctx context.Context, b Backend, sessionID string) ([]api.FeatureSuggestion, error) {
	res, err := b.GetFeatures(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeatures, err)
	}
	if !res.Success {
		return nil, ErrFeatures
	}
	return res.Suggestions, nil
}

// Saver receives the downloaded file.
type Saver interface {
	Save(name string, r io.Reader) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(name string, r io.Reader) error

func (f SaverFunc) Save(name string, r io.Reader) error { return f(name, r) }

// Download streams the cleaned file of a session into saver under
// CleanedFileName. The response body is released exactly once.
func (s *Service) Download(ctx context.Context, b Backend, sessionID string, saver Saver) error {
	body, err := b.DownloadFile(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	rc := &closeOnce{ReadCloser: body}
	defer rc.Close()

	if err := saver.Save(CleanedFileName, rc); err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	if err := rc.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	return nil
}

type closeOnce struct {
	io.ReadCloser
	once sync.Once
	err  error
}

func (c *closeOnce) Close() error {
	c.once.Do(func() { c.err = c.ReadCloser.Close() })
	return c.err
}

// DirSaver writes files into a directory, replacing any file of the same
// name only once the new content is complete.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(name string, r io.Reader) error {
	tmp, err := os.CreateTemp(d.Dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(d.Dir, filepath.Base(name)))
}
