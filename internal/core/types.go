package core

import (
	"context"
	"io"
	"net/url"

	"github.com/JonMunkholm/datacleanser/internal/api"
)

// Backend is the subset of the API client the flows use. Implementations
// carry the signed-in user's token.
type Backend interface {
	Upload(ctx context.Context, f api.File, progress func(int)) (*api.UploadResult, error)
	GetProfile(ctx context.Context, sessionID string) (*api.ProfileResult, error)
	CleanData(ctx context.Context, sessionID string, opts api.CleanOptions) (*api.CleanResult, error)
	GetAudit(ctx context.Context, sessionID string) ([]api.AuditLog, error)
	DownloadFile(ctx context.Context, sessionID string) (io.ReadCloser, error)
	GetFeatures(ctx context.Context, sessionID string) (*api.FeatureSuggestions, error)
}

// UploadPhase is the state of an upload job.
type UploadPhase string

const (
	PhaseUploading UploadPhase = "uploading"
	PhaseComplete  UploadPhase = "complete"
	PhaseFailed    UploadPhase = "failed"
)

// Done reports whether the phase is terminal.
func (p UploadPhase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// UploadProgress is a snapshot of an upload job.
type UploadProgress struct {
	UploadID string      `json:"upload_id"`
	FileName string      `json:"file_name"`
	Phase    UploadPhase `json:"phase"`
	Percent  int         `json:"percent"`

	// Set when Phase is PhaseComplete.
	SessionID string `json:"session_id,omitempty"`
	Redirect  string `json:"redirect,omitempty"`

	// Set when Phase is PhaseFailed.
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// UploadOutcome is a successful upload.
type UploadOutcome struct {
	SessionID string
	Rows      int
	Columns   []string
	Redirect  string
}

// ProfileURL is the page shown after a successful upload.
func ProfileURL(sessionID string) string {
	return "/profile?session_id=" + url.QueryEscape(sessionID)
}

// ResultURL is the cleaning result page of a session.
func ResultURL(sessionID string) string {
	return "/result?session_id=" + url.QueryEscape(sessionID)
}

// Source tells where displayed profile data came from.
type Source int

const (
	SourceCache Source = iota + 1
	SourceServer
)

// ProfileState is one render of the profile view.
type ProfileState struct {
	Profile *api.ProfileResult
	Source  Source
	Err     error
}

// CleanOutcome is everything the result view shows.
type CleanOutcome struct {
	Clean *api.CleanResult
	Logs  []api.AuditLog
}

// DefaultCleanOptions is the pipeline the result view always runs.
var DefaultCleanOptions = api.CleanOptions{
	ImputeMissing:  true,
	RemoveOutliers: true,
	Deduplicate:    true,
}
