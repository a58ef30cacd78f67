package handler

import (
	"AgentVendor/internal/pkg/consts"
	"AgentVendor/internal/pkg/minio"
	"AgentVendor/internal/pkg/response"
	"AgentVendor/internal/pkg/util"
	"AgentVendor/internal/service"
	"bytes"
	"io"
	log "log/slog"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MediaHandler struct{}

func NewMediaHandler() *MediaHandler {
	return &MediaHandler{}
}

// Upload 上传聊天附件，返回可直接放进消息体的附件描述
func (s *MediaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if !isSupportedAttachment(contentType) {
		response.Error(c, service.ErrFileNotSupported)
		return
	}

	ext := path.Ext(file.Filename)
	objectName := time.Now().Format("2006/01/02/") + uuid.NewString() + ext

	fileKey, err := minio.UploadFile(c.Request.Context(), objectName, reader, file.Size, contentType)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "附件上传失败", "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}

	url, err := minio.ResolveURL(c.Request.Context(), fileKey)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "附件地址解析失败", "key", fileKey, "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}

	// 图片附件额外生成缩略图，列表页用小图
	thumbURL := ""
	if strings.HasPrefix(contentType, consts.MimePrefixImage) {
		if key, err := s.uploadThumbnail(c, reader, fileKey); err != nil {
			log.WarnContext(c.Request.Context(), "缩略图生成失败", "key", fileKey, "err", err)
		} else if resolved, err := minio.ResolveURL(c.Request.Context(), key); err == nil {
			thumbURL = resolved
		}
	}

	response.Success(c, gin.H{
		"name":     file.Filename,
		"mimeType": contentType,
		"url":      url,
		"thumbUrl": thumbURL,
		"key":      fileKey,
		"size":     file.Size,
	})
}

// Delete 删除附件及其缩略图
func (s *MediaHandler) Delete(c *gin.Context) {
	key := c.Query("key")
	if key == "" || strings.Contains(key, "..") {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := minio.DeleteFile(c.Request.Context(), key); err != nil {
		log.ErrorContext(c.Request.Context(), "附件删除失败", "key", key, "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}
	// 缩略图可能不存在，忽略结果
	thumbKey := strings.TrimSuffix(key, path.Ext(key)) + "_thumb.jpg"
	_ = minio.DeleteFile(c.Request.Context(), thumbKey)

	response.Success(c, nil)
}

func (s *MediaHandler) uploadThumbnail(c *gin.Context, reader io.ReadSeeker, fileKey string) (string, error) {
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	thumb := imaging.Fit(img, 512, 512, imaging.Lanczos)

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", err
	}

	thumbKey := strings.TrimSuffix(fileKey, path.Ext(fileKey)) + "_thumb.jpg"
	return minio.UploadFile(c.Request.Context(), thumbKey, &buf, int64(buf.Len()), "image/jpeg")
}

// isSupportedAttachment 图片、纯文本和 PDF 之外的类型一律拒绝
func isSupportedAttachment(contentType string) bool {
	if strings.HasPrefix(contentType, consts.MimePrefixImage) {
		return true
	}
	if strings.HasPrefix(contentType, "text/") {
		return true
	}
	return contentType == "application/pdf"
}
