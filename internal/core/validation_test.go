package core

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"
)

func xlsxFile(t *testing.T, name string) UploadFile {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("xl/workbook.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("<workbook/>")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	return UploadFile{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func TestValidateUpload(t *testing.T) {
	const limit = 10 << 20

	big := csvFile("big.csv", "a,b\n1,2\n")
	big.Size = limit + 1

	tests := []struct {
		name    string
		files   []UploadFile
		wantErr error
	}{
		{"no file", nil, ErrNoFile},
		{"two files", []UploadFile{csvFile("a.csv", "a\n1\n"), csvFile("b.csv", "b\n2\n")}, ErrTooManyFiles},
		{"too large", []UploadFile{big}, FileTooLarge(limit)},
		{"pdf extension", []UploadFile{csvFile("report.pdf", "a,b\n1,2\n")}, ErrUnsupportedType},
		{"text posing as xlsx", []UploadFile{csvFile("data.xlsx", "a,b\n1,2\n")}, ErrUnsupportedType},
		{"csv", []UploadFile{csvFile("data.csv", "name,age\nada,36\nbo,41\n")}, nil},
		{"upper case extension", []UploadFile{csvFile("DATA.CSV", "name,age\nada,36\n")}, nil},
		{"exactly at limit", []UploadFile{func() UploadFile { f := csvFile("edge.csv", "a\n1\n"); f.Size = limit; return f }()}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateUpload(tt.files, limit)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateUpload() error = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr.Error() {
				t.Errorf("ValidateUpload() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUpload_CanonicalType(t *testing.T) {
	f, err := ValidateUpload([]UploadFile{xlsxFile(t, "book.xlsx")}, 10<<20)
	if err != nil {
		t.Fatalf("ValidateUpload() error = %v", err)
	}
	want := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if f.ContentType != want {
		t.Errorf("ContentType = %q, want %q", f.ContentType, want)
	}

	f, err = ValidateUpload([]UploadFile{csvFile("x.csv", "a,b\n1,2\n")}, 10<<20)
	if err != nil {
		t.Fatalf("ValidateUpload() error = %v", err)
	}
	if f.ContentType != "text/csv" {
		t.Errorf("ContentType = %q, want text/csv", f.ContentType)
	}
}

func TestValidateUpload_DeclaredTypeFallback(t *testing.T) {
	f := csvFile("export", "a,b\n1,2\n")
	f.ContentType = "text/csv; charset=utf-8"
	if _, err := ValidateUpload([]UploadFile{f}, 10<<20); err != nil {
		t.Errorf("ValidateUpload() error = %v, want nil", err)
	}
}

func TestFileTooLarge_Message(t *testing.T) {
	tests := []struct {
		limit int64
		want  string
	}{
		{10 << 20, "File size must be less than 10MB"},
		{1 << 20, "File size must be less than 1MB"},
		{1500, "File size must be less than 1.5 KiB"},
	}
	for _, tt := range tests {
		if got := FileTooLarge(tt.limit).Message; got != tt.want {
			t.Errorf("FileTooLarge(%d) = %q, want %q", tt.limit, got, tt.want)
		}
	}
}

func TestValidationError_IsValidationError(t *testing.T) {
	_, err := ValidateUpload(nil, 1)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error %T is not a *ValidationError", err)
	}
	if ve.Code != "FILE004" {
		t.Errorf("Code = %q, want FILE004", ve.Code)
	}
}
