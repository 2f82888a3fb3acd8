package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/storage"
	"github.com/templui/finboard/internal/validation"
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// UploadAvatar validates the image, stores it and replaces the previous avatar.
func (s *FileService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	upload, err := validation.ValidateAvatar(header)
	if err != nil {
		if errors.Is(err, validation.ErrAvatarTooLarge) {
			return nil, err
		}
		return nil, invalid(err)
	}

	previous, err := s.fileRepo.LatestByType(userID, model.FileTypeAvatar)
	if err != nil && !errors.Is(err, repository.ErrFileNotFound) {
		return nil, fmt.Errorf("failed to get current avatar: %w", err)
	}

	fileModel := model.NewAvatar(uuid.New().String(), userID, header.Filename, upload.MimeType, upload.Extension, upload.Size, time.Now())
	storagePath := fileModel.StoragePath

	err = s.storage.Save(ctx, storagePath, file, upload.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	err = s.fileRepo.Create(fileModel)
	if err != nil {
		// DB insert failed, try to clean up the uploaded object
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	if previous != nil {
		err = s.delete(ctx, previous)
		if err != nil {
			slog.Warn("failed to delete previous avatar", "error", err, "user_id", userID)
		}
	}

	return fileModel, nil
}

// AvatarURL returns "" when the user has no avatar.
func (s *FileService) AvatarURL(ctx context.Context, userID string) string {
	avatar, err := s.fileRepo.LatestByType(userID, model.FileTypeAvatar)
	if err != nil {
		if !errors.Is(err, repository.ErrFileNotFound) {
			slog.Warn("failed to get avatar", "error", err, "user_id", userID)
		}
		return ""
	}
	return s.storage.URL(ctx, avatar.StoragePath)
}

// URL returns a browser-loadable link for a stored file.
func (s *FileService) URL(ctx context.Context, file *model.File) string {
	if file == nil {
		return ""
	}
	return s.storage.URL(ctx, file.StoragePath)
}

func (s *FileService) DeleteAvatar(ctx context.Context, userID string) error {
	file, err := s.fileRepo.LatestByType(userID, model.FileTypeAvatar)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil // no avatar to delete
		}
		return err
	}

	return s.delete(ctx, file)
}

func (s *FileService) delete(ctx context.Context, file *model.File) error {
	// storage is best effort, the record is what the app reads
	if file.IsAvatarOf(file.UserID) {
		delErr := s.storage.Delete(ctx, file.StoragePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
		}
	} else {
		slog.Warn("file outside the avatar prefix left in storage", "file_id", file.ID, "path", file.StoragePath)
	}

	err := s.fileRepo.Delete(file.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}
