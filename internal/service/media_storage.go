package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IMediaStorage stores blog images under a per blog directory.
type IMediaStorage interface {
	Save(projectID, blogID, uploadPath string, data []byte) error
	Remove(projectID, blogID, uploadPath string) error
	Exists(projectID, blogID, uploadPath string) bool
	// URL is the public address of an image, valid once it is saved.
	URL(projectID, blogID, uploadPath string) string
}

type diskMediaStorage struct {
	root      string
	publicURL string
}

// NewDiskMediaStorage writes files to {root}/blogs/{project}/{blog}/{path};
// publicURL is where root is served from.
func NewDiskMediaStorage(root, publicURL string) IMediaStorage {
	return &diskMediaStorage{
		root:      root,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (s *diskMediaStorage) file(projectID, blogID, uploadPath string) (string, error) {
	clean := path.Clean("/" + uploadPath)[1:]
	if clean == "" || clean != uploadPath || strings.Contains(uploadPath, "\\") {
		return "", fmt.Errorf("invalid upload path %q", uploadPath)
	}
	return filepath.Join(s.root, "blogs", projectID, blogID, filepath.FromSlash(clean)), nil
}

func (s *diskMediaStorage) Save(projectID, blogID, uploadPath string, data []byte) error {
	name, err := s.file(projectID, blogID, uploadPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}

	// Write then rename so a reader never sees a partial file.
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, name)
}

// Remove deletes an image; a missing file is not an error.
func (s *diskMediaStorage) Remove(projectID, blogID, uploadPath string) error {
	name, err := s.file(projectID, blogID, uploadPath)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *diskMediaStorage) Exists(projectID, blogID, uploadPath string) bool {
	name, err := s.file(projectID, blogID, uploadPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(name)
	return err == nil
}

func (s *diskMediaStorage) URL(projectID, blogID, uploadPath string) string {
	return fmt.Sprintf("%s/blogs/%s/%s/%s", s.publicURL, projectID, blogID, uploadPath)
}
