package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	credJSON := strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_JSON"))
	if credJSON != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func getBucketName() (string, error) {
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		return "", errors.New("GCS_BUCKET is required")
	}
	return bucket, nil
}

// UploadBytesToGCS writes data under objectKey and returns its access URL.
func UploadBytesToGCS(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	bucket, err := getBucketName()
	if err != nil {
		return "", err
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	writer := client.Bucket(bucket).Object(objectKey).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		return "", fmt.Errorf("failed to write object %s: %w", objectKey, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", objectKey, err)
	}

	return BuildObjectAccessURL(objectKey), nil
}

func DownloadFromGCS(ctx context.Context, objectKey string) ([]byte, error) {
	bucket, err := getBucketName()
	if err != nil {
		return nil, err
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	reader, err := client.Bucket(bucket).Object(objectKey).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrorRecordNotFound
		}
		return nil, fmt.Errorf("failed to open object %s: %w", objectKey, err)
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func DeleteObjectFromGCS(ctx context.Context, objectKey string) error {
	bucket, err := getBucketName()
	if err != nil {
		return err
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	err = client.Bucket(bucket).Object(objectKey).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", objectKey, err)
	}
	return nil
}

// StatObjectInGCS returns the stored object's size, or
// ErrorRecordNotFound when nothing was uploaded under objectKey.
func StatObjectInGCS(ctx context.Context, objectKey string) (int64, error) {
	bucket, err := getBucketName()
	if err != nil {
		return 0, err
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	attrs, err := client.Bucket(bucket).Object(objectKey).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return 0, ErrorRecordNotFound
		}
		return 0, err
	}
	return attrs.Size, nil
}
