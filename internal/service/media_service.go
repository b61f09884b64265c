package service

import (
	"context"
	"errors"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/repository"
	"fitforge/server/internal/storage"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported image type")
	ErrMediaNotUploaded     = errors.New("object was not uploaded")
	ErrMediaKeyMismatch     = errors.New("object key does not belong to this program")
	ErrNoCoverImage         = errors.New("program has no cover image")
)

// Upload URLs are short lived, download URLs last a little longer.
const (
	coverUploadExpiry   = 5 * time.Minute
	coverDownloadExpiry = storage.DefaultPresignedURLExpiry
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadTicket is returned to the client before it PUTs the file.
type UploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type MediaService interface {
	RequestCoverUpload(ctx context.Context, programID primitive.ObjectID, fileName, contentType string) (*UploadTicket, error)
	ConfirmCoverUpload(ctx context.Context, adminID, programID primitive.ObjectID, objectKey, fileName, contentType string, size int64) (*domain.MediaUpload, error)
	CoverURL(ctx context.Context, program *domain.Program) (string, error)
}

type mediaService struct {
	mediaRepo   repository.MediaRepository
	programRepo repository.ProgramRepository
	storage     storage.FileStorage
	logger      *zap.Logger
}

// NewMediaService creates the program cover service.
func NewMediaService(mediaRepo repository.MediaRepository, programRepo repository.ProgramRepository, fileStorage storage.FileStorage, logger *zap.Logger) MediaService {
	return &mediaService{
		mediaRepo:   mediaRepo,
		programRepo: programRepo,
		storage:     fileStorage,
		logger:      logger.Named("media"),
	}
}

func coverKeyPrefix(programID primitive.ObjectID) string {
	return fmt.Sprintf("programs/%s/", programID.Hex())
}

// RequestCoverUpload returns a presigned PUT URL for a new program cover.
func (s *mediaService) RequestCoverUpload(ctx context.Context, programID primitive.ObjectID, fileName, contentType string) (*UploadTicket, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, ErrUnsupportedMediaType
	}
	if _, err := s.programRepo.GetByID(ctx, programID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if e := strings.ToLower(filepath.Ext(fileName)); e == ".jpeg" || e == ".jpg" || e == ".png" || e == ".webp" {
		ext = e
	}

	objectKey := coverKeyPrefix(programID) + uuid.NewString() + ext
	url, err := s.storage.GeneratePresignedUploadURL(ctx, objectKey, contentType, coverUploadExpiry)
	if err != nil {
		s.logger.Error("Failed to presign upload", zap.String("object_key", objectKey), zap.Error(err))
		return nil, err
	}
	return &UploadTicket{
		UploadURL: url,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().Add(coverUploadExpiry),
	}, nil
}

// ConfirmCoverUpload records an uploaded cover and makes it the program's cover.
func (s *mediaService) ConfirmCoverUpload(ctx context.Context, adminID, programID primitive.ObjectID, objectKey, fileName, contentType string, size int64) (*domain.MediaUpload, error) {
	if !strings.HasPrefix(objectKey, coverKeyPrefix(programID)) {
		return nil, ErrMediaKeyMismatch
	}
	exists, err := s.storage.ObjectExists(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrMediaNotUploaded
	}

	upload := &domain.MediaUpload{
		ProgramID:   programID,
		ObjectKey:   objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  adminID,
	}
	id, err := s.mediaRepo.Create(ctx, upload)
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return nil, err
	}
	if errors.Is(err, repository.ErrDuplicate) {
		// Confirmed twice; reuse the first record.
		if upload, err = s.mediaRepo.GetByObjectKey(ctx, objectKey); err != nil {
			return nil, err
		}
	} else {
		upload.ID = id
	}

	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	previousKey := program.CoverImageKey

	if err = s.programRepo.SetCoverImage(ctx, programID, objectKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	s.logger.Info("Program cover updated", zap.String("program_id", programID.Hex()), zap.String("object_key", objectKey))

	if previousKey != "" && previousKey != objectKey {
		// Best effort: nothing references the replaced image anymore.
		if err := s.storage.DeleteObject(ctx, previousKey); err != nil {
			s.logger.Warn("Failed to delete replaced cover", zap.String("object_key", previousKey), zap.Error(err))
		}
	}
	return upload, nil
}

// CoverURL returns a presigned GET URL for the program's cover.
func (s *mediaService) CoverURL(ctx context.Context, program *domain.Program) (string, error) {
	if program.CoverImageKey == "" {
		return "", ErrNoCoverImage
	}
	return s.storage.GeneratePresignedDownloadURL(ctx, program.CoverImageKey, coverDownloadExpiry)
}
