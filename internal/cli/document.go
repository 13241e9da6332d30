package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Error code constants for failures outside the ledger. Ledger failures are
// reported with the ledger's own codes (STORAGE_UNAVAILABLE, INVALID_SCHEMA, ...).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeUsage       = "E002" // Invalid flag or argument value
	ErrCodeReadFailed  = "E004" // File read error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
)

// FileError is a failure reading or writing a history document.
type FileError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Message, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Message, e.Path)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// readDocument reads an import document from path, or from stdin when path
// is "-".
func readDocument(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, &FileError{Code: ErrCodeReadFailed, Path: "<stdin>", Message: "cannot read", Err: err}
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &FileError{Code: ErrCodeNotFound, Path: path, Message: "document not found:"}
	}
	if err != nil {
		return nil, &FileError{Code: ErrCodeReadFailed, Path: path, Message: "cannot read", Err: err}
	}
	return data, nil
}

// writeDocument writes data to path, or to stdout when path is "" or "-".
// Files are replaced atomically so a failed export never truncates an
// earlier one.
func writeDocument(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return &FileError{Code: ErrCodeWriteFailed, Path: "<stdout>", Message: "cannot write", Err: err}
		}
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FileError{Code: ErrCodeWriteFailed, Path: dir, Message: "cannot create directory", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".medinsight-export-*")
	if err != nil {
		return &FileError{Code: ErrCodeWriteFailed, Path: path, Message: "cannot write", Err: err}
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &FileError{Code: ErrCodeWriteFailed, Path: path, Message: "cannot write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &FileError{Code: ErrCodeWriteFailed, Path: path, Message: "cannot write", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &FileError{Code: ErrCodeWriteFailed, Path: path, Message: "cannot write", Err: err}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
