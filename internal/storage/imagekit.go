package storage

import (
	"context"
	"strings"

	"github.com/imagekit-developer/imagekit-go"
	"github.com/imagekit-developer/imagekit-go/api/uploader"
	"go.uber.org/zap"

	"peerprep/interview/internal/config"
	"peerprep/interview/internal/models"
)

// ImageKitUploader stores résumés in ImageKit and returns their public URL.
type ImageKitUploader struct {
	cfg    config.ImageKitConfig
	ik     *imagekit.ImageKit
	logger *zap.Logger
}

func NewImageKitUploader(cfg config.ImageKitConfig, logger *zap.Logger) *ImageKitUploader {
	ik := imagekit.NewFromParams(imagekit.NewParams{
		PrivateKey:  cfg.PrivateKey,
		PublicKey:   cfg.PublicKey,
		UrlEndpoint: cfg.URLEndpoint,
	})
	if cfg.UploadPrefix != "" {
		ik.Uploader.Config.UploadPrefix = cfg.UploadPrefix
	}
	return &ImageKitUploader{cfg: cfg, ik: ik, logger: logger}
}

func storageUnavailable(message string, err error) *models.AppError {
	return &models.AppError{
		Code:    models.ErrCodeStorageUnavailable,
		Message: message,
		Err:     err,
	}
}

// Upload sends the data URI payload under the configured folder.
func (u *ImageKitUploader) Upload(ctx context.Context, dataURI, fileName string) (string, error) {
	if !u.cfg.Configured() {
		return "", storageUnavailable("ImageKit credentials not configured", nil)
	}

	unique := true
	resp, err := u.ik.Uploader.Upload(ctx, StripDataURI(dataURI), uploader.UploadParam{
		FileName:          fileName,
		Folder:            u.cfg.Folder,
		UseUniqueFileName: &unique,
	})
	if err != nil {
		u.logger.Error("ImageKit upload failed",
			zap.String("file_name", fileName),
			zap.Error(err))
		return "", storageUnavailable("ImageKit upload failed", err).WithDetail(err.Error())
	}
	if resp == nil || strings.TrimSpace(resp.Data.Url) == "" {
		u.logger.Error("ImageKit upload returned no url", zap.String("file_name", fileName))
		return "", storageUnavailable("ImageKit upload failed", nil)
	}

	u.logger.Info("resume uploaded", zap.String("file_id", resp.Data.FileId), zap.String("url", resp.Data.Url))
	return resp.Data.Url, nil
}
