package services

import (
  "bytes"
  "context"
  "fmt"
  "io"
  "os"
  "time"
  "cloud.google.com/go/storage"
  "google.golang.org/api/option"
  "github.com/worksy/worksy-backend/internal/logger"
)

type BucketService interface {
  Upload(ctx context.Context, key string, data []byte, contentType string) error
  SignedURL(key string, ttl time.Duration) (string, error)
}

type bucketService struct {
  log           *logger.Logger
  storageClient *storage.Client
  bucketName    string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
  serviceLog := log.With("service", "BucketService")
  bucket := os.Getenv("GCS_BUCKET_NAME")
  if bucket == "" {
    return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
  }
  saPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
  if saPath == "" {
    serviceLog.Warn("The storage client may rely on other ADC or fail because GOOGLE_APPLICATION_CREDENTIALS_JSON env var missing...")
  }
  ctx := context.Background()
  var stClient *storage.Client
  var err error
  if saPath != "" {
    stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
  } else {
    stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
  }
  if err != nil {
    return nil, fmt.Errorf("Failed to create storage client: %w", err)
  }
  return &bucketService{
    log:           serviceLog,
    storageClient: stClient,
    bucketName:    bucket,
  }, nil
}

func (bs *bucketService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
  ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
  defer cancel()
  w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
  w.ContentType = contentType
  if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
    _ = w.Close()
    return fmt.Errorf("Failed to write data to GCS: %w", err)
  }
  if err := w.Close(); err != nil {
    return fmt.Errorf("Failed to close GCS writer: %w", err)
  }
  return nil
}

func (bs *bucketService) SignedURL(key string, ttl time.Duration) (string, error) {
  url, err := bs.storageClient.Bucket(bs.bucketName).SignedURL(key, &storage.SignedURLOptions{
    Scheme:  storage.SigningSchemeV4,
    Method:  "GET",
    Expires: time.Now().Add(ttl),
  })
  if err != nil {
    return "", fmt.Errorf("Failed to sign GCS URL for %q: %w", key, err)
  }
  return url, nil
}
