package storage

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/jwalitptl/docbook-api/internal/model"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

const (
	// AvatarDir is the directory avatars are stored under, relative to the store root.
	AvatarDir = "profile-photos"

	DefaultMaxAvatarBytes = 2048 * 1024
)

var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Upload is a file received from a multipart form.
type Upload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Avatars is what the services need from avatar storage.
type Avatars interface {
	Save(up Upload) (string, error)
	Delete(path string) error
	URL(path string) string
}

type Config struct {
	Root         string
	PublicPrefix string
	MaxBytes     int64
}

// AvatarStore keeps profile photos on an afero filesystem.
type AvatarStore struct {
	fs       afero.Fs
	prefix   string
	maxBytes int64
}

// NewAvatarStore returns a store rooted at cfg.Root on the OS filesystem.
func NewAvatarStore(cfg Config) (*AvatarStore, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return NewAvatarStoreFs(afero.NewBasePathFs(afero.NewOsFs(), cfg.Root), cfg.PublicPrefix, cfg.MaxBytes), nil
}

func NewAvatarStoreFs(fs afero.Fs, publicPrefix string, maxBytes int64) *AvatarStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAvatarBytes
	}
	if publicPrefix == "" {
		publicPrefix = "/storage"
	}
	return &AvatarStore{
		fs:       fs,
		prefix:   strings.TrimRight(publicPrefix, "/"),
		maxBytes: maxBytes,
	}
}

// Save validates and writes an avatar and returns its stored path.
func (s *AvatarStore) Save(up Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(up.Name))
	want, ok := allowedTypes[ext]
	if !ok {
		return "", apperrors.FieldError("avatar", "the avatar must be a file of type: jpeg, png, jpg, gif")
	}
	if up.Size > s.maxBytes {
		return "", apperrors.FieldError("avatar", fmt.Sprintf("the avatar may not be greater than %d kilobytes", s.maxBytes/1024))
	}

	br := bufio.NewReader(io.LimitReader(up.Reader, s.maxBytes+1))
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", apperrors.InternalMessage("failed to read avatar", err)
	}
	if got := http.DetectContentType(head); got != want {
		return "", apperrors.FieldError("avatar", "the avatar must be an image")
	}

	if err := s.fs.MkdirAll(AvatarDir, 0o755); err != nil {
		return "", apperrors.InternalMessage("failed to store avatar", err)
	}

	name := path.Join(AvatarDir, uuid.NewString()+ext)
	f, err := s.fs.Create(name)
	if err != nil {
		return "", apperrors.InternalMessage("failed to store avatar", err)
	}
	n, err := io.Copy(f, br)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = apperrors.FieldError("avatar", fmt.Sprintf("the avatar may not be greater than %d kilobytes", s.maxBytes/1024))
	}
	if err != nil {
		_ = s.fs.Remove(name)
		if _, ok := apperrors.As(err); ok {
			return "", err
		}
		return "", apperrors.InternalMessage("failed to store avatar", err)
	}
	return name, nil
}

// Delete removes a stored avatar. A missing file is not an error.
func (s *AvatarStore) Delete(p string) error {
	if p == "" {
		return nil
	}
	if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete avatar %s: %w", p, err)
	}
	return nil
}

// URL is the public address of a stored path.
func (s *AvatarStore) URL(p string) string {
	if p == "" {
		return ""
	}
	return s.prefix + "/" + strings.TrimLeft(p, "/")
}

func (s *AvatarStore) PublicPrefix() string {
	return s.prefix
}

// HTTPFileSystem exposes the stored files for static serving. Directories are not listed.
func (s *AvatarStore) HTTPFileSystem() http.FileSystem {
	return filesOnly{s.fs}
}

type filesOnly struct {
	fs afero.Fs
}

// Open resolves name against the store root, so it matches the relative paths Save returns.
func (f filesOnly) Open(name string) (http.File, error) {
	rel := strings.TrimPrefix(path.Clean("/"+name), "/")
	if rel == "" {
		return nil, os.ErrNotExist
	}
	file, err := f.fs.Open(rel)
	if err != nil {
		return nil, err
	}
	if st, err := file.Stat(); err != nil || st.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

// Decorate fills u.ProfilePhotoURL from its stored path.
func Decorate(a Avatars, u *model.User) {
	if u != nil && u.ProfilePhotoPath != nil {
		u.ProfilePhotoURL = a.URL(*u.ProfilePhotoPath)
	}
}
