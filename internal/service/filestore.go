package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrBadFileName is returned for names that would escape the store root.
var ErrBadFileName = errors.New("invalid file name")

// FileStore keeps uploaded lab result files.
type FileStore interface {
	// Save writes r and returns the public URL of the stored file.
	Save(ctx context.Context, patientID, fileName string, r io.Reader) (string, error)
	// Path resolves a stored file for serving.
	Path(patientID, storedName string) (string, error)
}

// LabResultsURLPrefix is the public prefix of stored lab result files.
const LabResultsURLPrefix = "/uploads/lab-results"

// LocalFileStore writes files under Root/lab-results/<patientId>/ and names
// them <unixMillis>-<fileName>.
type LocalFileStore struct {
	Root string
	now  func() time.Time
}

func NewLocalFileStore(root string) *LocalFileStore {
	if root == "" {
		root = "uploads"
	}
	return &LocalFileStore{Root: root, now: time.Now}
}

func (s *LocalFileStore) Save(ctx context.Context, patientID, fileName string, r io.Reader) (string, error) {
	patientID, err := cleanSegment(patientID)
	if err != nil {
		return "", err
	}
	base, err := cleanSegment(fileName)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.Root, "lab-results", patientID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir uploads: %w", err)
	}
	stored := fmt.Sprintf("%d-%s", s.now().UnixMilli(), base)
	f, err := os.OpenFile(filepath.Join(dir, stored), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path.Join(LabResultsURLPrefix, patientID, stored), nil
}

func (s *LocalFileStore) Path(patientID, storedName string) (string, error) {
	patientID, err := cleanSegment(patientID)
	if err != nil {
		return "", err
	}
	name, err := cleanSegment(storedName)
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.Root, "lab-results", patientID, name)
	if _, err := os.Stat(p); err != nil {
		return "", err
	}
	return p, nil
}

// cleanSegment keeps only the final element of a client supplied name.
func cleanSegment(s string) (string, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	s = path.Base(s)
	if s == "" || s == "." || s == ".." || s == "/" {
		return "", ErrBadFileName
	}
	return s, nil
}
