package snapshots

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
)

// uploadTimeout bounds a single object write.
const uploadTimeout = 2 * time.Minute

// Uploader archives page screenshots in a Cloud Storage bucket.
type Uploader struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewUploader creates the Cloud Storage client. Credentials come from
// Application Default Credentials.
func NewUploader(ctx context.Context, bucket, prefix string) (*Uploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Close releases the underlying storage client.
func (u *Uploader) Close() error {
	return u.client.Close()
}

// ObjectName derives the timestamp-based object name for one capture.
func (u *Uploader) ObjectName(capturedAt time.Time) string {
	return path.Join(u.prefix, fmt.Sprintf("sales-%s.png", capturedAt.Format("20060102-150405")))
}

// Store uploads the screenshot under its timestamp-derived name and returns
// the object name.
func (u *Uploader) Store(ctx context.Context, capturedAt time.Time, data []byte) (string, error) {
	objectName := u.ObjectName(capturedAt)

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(objectName).NewWriter(uploadCtx)
	w.ContentType = "image/png"

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", objectName, err)
	}

	log.Debug().
		Str("bucket", u.bucket).
		Str("object", objectName).
		Int("bytes", len(data)).
		Msg("Uploaded screenshot")
	return objectName, nil
}
