package core

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// ValidationError is a rejected upload selection. It is raised before any
// network call.
type ValidationError struct {
	Code    string
	Message string
	Action  string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrNoFile = &ValidationError{
		Code: "FILE004", Message: "No file was selected",
		Action: "Choose a CSV or Excel file to upload",
	}
	ErrTooManyFiles = &ValidationError{
		Code: "FILE006", Message: "Only one file can be uploaded at a time",
		Action: "Select a single file",
	}
	ErrUnsupportedType = &ValidationError{
		Code: "FILE002", Message: "File type must be CSV, XLS, or XLSX",
		Action: "Export the sheet as .csv, .xls or .xlsx",
	}
)

// FileTooLarge builds the size error for limit bytes.
func FileTooLarge(limit int64) *ValidationError {
	return &ValidationError{
		Code:    "FILE001",
		Message: "File size must be less than " + sizeLabel(limit),
		Action:  "Split the file into smaller chunks",
	}
}

// sizeLabel prints whole mebibytes as "10MB", anything else in IEC units.
func sizeLabel(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return humanize.IBytes(uint64(n))
}

// UploadFile is a candidate file as selected by the user.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string // declared by the client, advisory
	Open        func() (io.ReadCloser, error)
}

type fileKind struct {
	mime     string
	detected []string
}

var (
	kindCSV  = fileKind{"text/csv", []string{"text/csv", "text/plain"}}
	kindXLSX = fileKind{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		[]string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	}
	kindXLS = fileKind{"application/vnd.ms-excel", []string{"application/vnd.ms-excel", "application/x-ole-storage"}}
)

var kindsByExt = map[string]fileKind{
	".csv":  kindCSV,
	".xlsx": kindXLSX,
	".xls":  kindXLS,
}

func kindOf(f UploadFile) (fileKind, bool) {
	if k, ok := kindsByExt[strings.ToLower(filepath.Ext(f.Name))]; ok {
		return k, true
	}
	declared := strings.ToLower(strings.TrimSpace(strings.Split(f.ContentType, ";")[0]))
	for _, k := range kindsByExt {
		if k.mime == declared {
			return k, true
		}
	}
	return fileKind{}, false
}

// ValidateUpload checks that exactly one file of an accepted type and at most
// maxSize bytes was selected. On success the file's ContentType is replaced
// by the canonical type of its format.
func ValidateUpload(files []UploadFile, maxSize int64) (UploadFile, error) {
	switch {
	case len(files) == 0:
		return UploadFile{}, ErrNoFile
	case len(files) > 1:
		return UploadFile{}, ErrTooManyFiles
	}
	f := files[0]

	if f.Size > maxSize {
		return UploadFile{}, FileTooLarge(maxSize)
	}

	kind, ok := kindOf(f)
	if !ok {
		return UploadFile{}, ErrUnsupportedType
	}
	if err := sniff(f, kind); err != nil {
		return UploadFile{}, err
	}

	f.ContentType = kind.mime
	return f, nil
}

// sniff checks the file content against the format its name claims.
func sniff(f UploadFile, kind fileKind) error {
	if f.Open == nil {
		return errors.New("upload: file has no content")
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("upload: open %s: %w", f.Name, err)
	}
	defer rc.Close()

	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return fmt.Errorf("upload: read %s: %w", f.Name, err)
	}
	for m := mt; m != nil; m = m.Parent() {
		for _, want := range kind.detected {
			if m.Is(want) {
				return nil
			}
		}
	}
	return ErrUnsupportedType
}
