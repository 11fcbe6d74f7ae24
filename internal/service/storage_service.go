package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/storage"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const uploadURLExpiry = 15 * time.Minute

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".heic": true}

// UploadTarget tells the client where to PUT an image and which URL to store
// on the report afterwards.
type UploadTarget struct {
	UploadURL string    `json:"upload_url"`
	ObjectURL string    `json:"object_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type StorageService interface {
	GenerateUploadURL(ctx context.Context, fileName string) (*UploadTarget, error)
	Initialize(ctx context.Context) error
}

type storageService struct {
	store  storage.ObjectStore
	bucket string
	clock  clockwork.Clock
}

func NewStorageService(store storage.ObjectStore, bucket string, clock clockwork.Clock) StorageService {
	return &storageService{store: store, bucket: bucket, clock: clock}
}

func (s *storageService) Initialize(ctx context.Context) error {
	return s.store.EnsureBucket(ctx, s.bucket)
}

func (s *storageService) GenerateUploadURL(ctx context.Context, fileName string) (*UploadTarget, error) {
	if s.store == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	if !allowedImageExt[ext] {
		return nil, apperr.InvalidArgument("unsupported image type %q", ext)
	}

	object := "reports/" + uuid.New().String() + ext
	u, err := s.store.PresignPut(ctx, s.bucket, object, uploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}
	return &UploadTarget{
		UploadURL: u.String(),
		ObjectURL: s.store.ObjectURL(s.bucket, object),
		ExpiresAt: s.clock.Now().Add(uploadURLExpiry),
	}, nil
}
