package photostore

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// RemoteMirror pushes stored photos to a Supabase storage bucket so the
// frontend can serve them from a CDN-backed public URL. It is optional; when
// unconfigured the store serves photos from local disk only.
type RemoteMirror struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewRemoteMirror(supabaseURL, publishableKey, bucket string) *RemoteMirror {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	return &RemoteMirror{
		client:  storage.NewClient(baseURL+"/storage/v1", publishableKey, nil),
		bucket:  bucket,
		baseURL: baseURL,
	}
}

func (m *RemoteMirror) Upload(filename, contentType string, data []byte) (string, error) {
	storagePath := "photos/" + filename
	upsert := true
	_, err := m.client.UploadFile(m.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo to bucket: %w", err)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", m.baseURL, m.bucket, storagePath), nil
}
