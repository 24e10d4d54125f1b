package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/logging"
)

// ErrUploadFailed is returned when the backend accepts the request but
// reports success=false.
var ErrUploadFailed = errors.New("upload failed")

// Upload validates the selection, sends it and stores the preview snapshot.
// Validation failures return before any network call.
func (s *Service) Upload(ctx context.Context, b Backend, files []UploadFile, progress func(int)) (*UploadOutcome, error) {
	f, err := ValidateUpload(files, s.maxSize)
	if err != nil {
		return nil, err
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	return s.send(ctx, b, api.File{Name: f.Name, Size: f.Size, ContentType: f.ContentType, Body: rc}, progress)
}

// StartUpload validates synchronously and runs the upload in the background.
// The job is not tied to ctx cancellation: leaving the page does not stop it.
// Progress is available through SubscribeProgress.
func (s *Service) StartUpload(ctx context.Context, b Backend, files []UploadFile) (string, error) {
	f, err := ValidateUpload(files, s.maxSize)
	if err != nil {
		return "", err
	}

	// The caller's file handles may not outlive its request.
	data, err := readFile(f)
	if err != nil {
		return "", err
	}

	userID, _ := owner(ctx)
	up := &activeUpload{
		ID:    uuid.NewString(),
		Owner: userID,
		Done:  make(chan struct{}),
	}
	up.progress = UploadProgress{UploadID: up.ID, FileName: f.Name, Phase: PhaseUploading}

	s.mu.Lock()
	s.uploads[up.ID] = up
	s.mu.Unlock()

	go s.run(context.WithoutCancel(ctx), b, up, api.File{
		Name:        f.Name,
		Size:        int64(len(data)),
		ContentType: f.ContentType,
		Body:        bytes.NewReader(data),
	})

	return up.ID, nil
}

func readFile(f UploadFile) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, f.Size+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

func (s *Service) run(ctx context.Context, b Backend, up *activeUpload, f api.File) {
	defer close(up.Done)
	defer s.forget(up.ID)

	logger := logging.WithFields(ctx, "upload_id", up.ID, "file", f.Name)
	logger.Info("upload started", "bytes", f.Size)

	out, err := s.send(ctx, b, f, up.setPercent)
	if err != nil {
		msg := MapError(err)
		logger.Warn("upload failed", "error", err, "code", msg.Code)
		up.finish(UploadProgress{
			UploadID: up.ID,
			FileName: f.Name,
			Phase:    PhaseFailed,
			Error:    msg.Message,
			Code:     msg.Code,
		})
		return
	}

	logger.Info("upload complete", "session_id", out.SessionID, "rows", out.Rows)
	up.finish(UploadProgress{
		UploadID:  up.ID,
		FileName:  f.Name,
		Phase:     PhaseComplete,
		Percent:   100,
		SessionID: out.SessionID,
		Redirect:  out.Redirect,
	})
}

// send forwards the file under an upload slot and writes the snapshot.
func (s *Service) send(ctx context.Context, b Backend, f api.File, progress func(int)) (*UploadOutcome, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	res, err := b.Upload(ctx, f, progress)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, ErrUploadFailed
	}

	s.saveSnapshot(ctx, res.SessionID, &api.ProfileResult{
		Success: true,
		Preview: res.Preview,
		Columns: res.Columns,
		Rows:    res.Rows,
		Profile: []api.ColumnStat{},
	})

	return &UploadOutcome{
		SessionID: res.SessionID,
		Rows:      res.Rows,
		Columns:   res.Columns,
		Redirect:  ProfileURL(res.SessionID),
	}, nil
}
