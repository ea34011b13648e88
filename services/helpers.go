package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/esportium/esports-arena/storage"
	"github.com/google/uuid"
)

func imageExtension(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUploadUnsupportedContent, contentType)
}

func videoExtension(contentType string) (string, error) {
	switch contentType {
	case "video/mp4":
		return ".mp4", nil
	case "video/webm":
		return ".webm", nil
	case "video/quicktime":
		return ".mov", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUploadUnsupportedContent, contentType)
}

func uploadImage(ctx context.Context, uploader storage.FileUploader, prefix, contentType string, content io.Reader) (string, error) {
	ext, err := imageExtension(contentType)
	if err != nil {
		return "", err
	}
	return uploadObject(ctx, uploader, prefix, ext, contentType, content)
}

func uploadVideo(ctx context.Context, uploader storage.FileUploader, prefix, contentType string, content io.Reader) (string, error) {
	ext, err := videoExtension(contentType)
	if err != nil {
		return "", err
	}
	return uploadObject(ctx, uploader, prefix, ext, contentType, content)
}

func uploadObject(ctx context.Context, uploader storage.FileUploader, prefix, ext, contentType string, content io.Reader) (string, error) {
	if uploader == nil {
		return "", errors.New("media storage is not configured")
	}
	key := fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), ext)
	if err := uploader.Upload(ctx, key, contentType, content); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}
