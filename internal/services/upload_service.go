package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"natours_backend/internal/imageprocessor"
	"natours_backend/internal/logger"
	"natours_backend/internal/services/dto"
	"natours_backend/internal/storage"
	"natours_backend/pkg/apperrors"
)

const MaxTourImages = 3

// Каталоги хранилища
const (
	UserPhotoDir = "users"
	TourImageDir = "tours"
)

// UploadService - фото пользователей и изображения туров.
// Возвращает имена файлов, которые записываются в модель.
type UploadService interface {
	UserPhoto(ctx context.Context, userID string, file *multipart.FileHeader) (string, error)
	TourImages(ctx context.Context, tourID string, cover *multipart.FileHeader, images []*multipart.FileHeader) (dto.TourImages, error)
}

type uploadService struct {
	storage   storage.Storage
	processor *imageprocessor.Processor
	now       func() time.Time
}

func NewUploadService(store storage.Storage, processor *imageprocessor.Processor) UploadService {
	return &uploadService{storage: store, processor: processor, now: time.Now}
}

func (s *uploadService) UserPhoto(ctx context.Context, userID string, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", nil
	}
	name := fmt.Sprintf("user-%s-%d.jpeg", userID, s.now().UnixMilli())
	if err := s.store(ctx, file, UserPhotoDir, name, imageprocessor.SizeUserPhoto); err != nil {
		return "", err
	}
	return name, nil
}

func (s *uploadService) TourImages(ctx context.Context, tourID string, cover *multipart.FileHeader, images []*multipart.FileHeader) (dto.TourImages, error) {
	var out dto.TourImages
	if len(images) > MaxTourImages {
		return out, apperrors.ErrTooManyImages
	}
	// сначала проверяем все файлы, чтобы не оставить половину загрузки
	for _, f := range append([]*multipart.FileHeader{cover}, images...) {
		if f != nil && !imageprocessor.IsImageMIME(f.Header.Get("Content-Type")) {
			return out, apperrors.ErrNotAnImage
		}
	}

	stamp := s.now().UnixMilli()
	if cover != nil {
		name := fmt.Sprintf("tour-%s-%d-cover.jpeg", tourID, stamp)
		if err := s.store(ctx, cover, TourImageDir, name, imageprocessor.SizeTourImage); err != nil {
			return out, err
		}
		out.ImageCover = name
	}

	for i, f := range images {
		name := fmt.Sprintf("tour-%s-%d-%d.jpeg", tourID, stamp, i+1)
		if err := s.store(ctx, f, TourImageDir, name, imageprocessor.SizeTourImage); err != nil {
			return out, err
		}
		out.Images = append(out.Images, name)
	}
	return out, nil
}

func (s *uploadService) store(ctx context.Context, file *multipart.FileHeader, dir, name string, size imageprocessor.ImageSize) error {
	if !imageprocessor.IsImageMIME(file.Header.Get("Content-Type")) {
		return apperrors.ErrNotAnImage
	}

	src, err := file.Open()
	if err != nil {
		return apperrors.InternalError(err)
	}
	defer src.Close()

	jpeg, err := s.processor.ToJPEG(src, size)
	if err != nil {
		return apperrors.ErrNotAnImage.WithError(err)
	}

	key := dir + "/" + name
	n := jpeg.Len()
	if err := s.storage.Save(ctx, key, jpeg, "image/jpeg"); err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Image stored", "key", key, "bytes", n)
	return nil
}
