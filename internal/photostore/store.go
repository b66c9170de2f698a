// Package photostore is a content-addressed store for uploaded glove photos.
// Identical bytes resolve to one stored image no matter how many times, or
// under how many artifacts, they are submitted.
package photostore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gloveiq-backend/internal/cache"
	"gloveiq-backend/internal/logger"
)

type StoredImage struct {
	ImageID   string    `json:"image_id"`
	SHA256    string    `json:"sha256"`
	Name      string    `json:"name"`
	Mime      string    `json:"mime"`
	Bytes     int64     `json:"bytes"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type PutResult struct {
	Image   StoredImage
	Deduped bool
}

type Store struct {
	dir     string
	baseURL string

	hashCache *cache.TTLCache[string]
	remote    *RemoteMirror
	log       *logger.Logger

	mu     sync.Mutex
	images map[string]StoredImage // sha256 -> stored image
}

func New(dir, baseURL string, hashCache *cache.TTLCache[string], remote *RemoteMirror, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{
		dir:       dir,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		hashCache: hashCache,
		remote:    remote,
		log:       log,
		images:    make(map[string]StoredImage),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Put stores photo bytes under their content hash. A hash already seen
// returns the existing image with Deduped=true and writes nothing.
func (s *Store) Put(name, mime string, data []byte) (PutResult, error) {
	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, hit := s.hashCache.Get(sha); hit {
		if img, ok := s.images[sha]; ok {
			return PutResult{Image: img, Deduped: true}, nil
		}
	}
	if img, ok := s.images[sha]; ok {
		s.hashCache.Set(sha, img.ImageID)
		return PutResult{Image: img, Deduped: true}, nil
	}

	imageID := "ph_" + sha[:10]
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".jpg"
	}
	filename := imageID + ext

	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return PutResult{}, fmt.Errorf("failed to persist photo: %w", err)
	}

	url := s.baseURL + "/uploads/" + filename
	if s.remote != nil {
		remoteURL, err := s.remote.Upload(filename, mime, data)
		if err != nil {
			// The local copy is authoritative; a mirror failure only costs the
			// public bucket URL.
			s.log.Warn("photo mirror upload failed", "image_id", imageID, "error", err)
		} else {
			url = remoteURL
		}
	}

	img := StoredImage{
		ImageID:   imageID,
		SHA256:    sha,
		Name:      name,
		Mime:      mime,
		Bytes:     int64(len(data)),
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}
	s.images[sha] = img
	s.hashCache.Set(sha, imageID)

	return PutResult{Image: img, Deduped: false}, nil
}

// MimeFromName maps a filename extension to its MIME type, defaulting to
// JPEG like the rest of the glove photo pipeline.
func MimeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}
