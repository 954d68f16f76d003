package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const (
	FolderWishlists = "wishlists"
	FolderItems     = "items"
	FolderReceipts  = "receipts"

	// MaxImageSize caps every uploaded image, multipart or data URI.
	MaxImageSize = 5 << 20
)

// maxImageDataLength is the longest base64 data URI carrying MaxImageSize
// bytes, plus room for the media type header.
var maxImageDataLength = base64.StdEncoding.EncodedLen(MaxImageSize) + 128

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error)
}

type GCSUploader struct {
	client *storage.Client
	bucket string
}

func NewGCSUploader(ctx context.Context, bucket, credentialsFile string) (*GCSUploader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	name := fmt.Sprintf("wishy/%s/%s", folder, uuid.NewString())

	w := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, name), nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// DisabledUploader stores nothing; every upload yields an empty URL.
type DisabledUploader struct{}

func (DisabledUploader) Upload(context.Context, string, []byte, string) (string, error) {
	return "", nil
}

// uploadImage never fails the caller: on any upload error the image URL is
// left empty.
func uploadImage(ctx context.Context, uploader ImageUploader, log *logrus.Logger, folder string, data []byte, contentType string) string {
	if uploader == nil || len(data) == 0 {
		return ""
	}
	url, err := uploader.Upload(ctx, folder, data, contentType)
	if err != nil {
		log.WithError(err).WithField("folder", folder).Warn("Image upload failed")
		return ""
	}
	return url
}

// decodeDataURI splits "data:<mime>;base64,<payload>". ok is false for
// anything else, such as a plain URL.
func decodeDataURI(raw string) (data []byte, contentType string, ok bool) {
	if !strings.HasPrefix(raw, "data:") {
		return nil, "", false
	}
	header, payload, found := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !found || !strings.HasSuffix(header, ";base64") {
		return nil, "", false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	return data, strings.TrimSuffix(header, ";base64"), true
}
