// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"corpsite/internal/cache"
	"corpsite/internal/imaging"
	"corpsite/internal/middleware"
	"corpsite/internal/models"
	"corpsite/internal/storage"
)

const (
	// maxUploadSize is the maximum allowed file upload size (50 MB).
	maxUploadSize = 50 << 20

	// sniffLen is how much of a file is read to detect its type.
	sniffLen = 512
)

// allowedMediaTypes defines MIME types accepted by the media library.
var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

// allowedDownloadTypes defines MIME types offered as downloads.
var allowedDownloadTypes = map[string]bool{
	"application/pdf": true,
	"application/zip": true,
	"text/plain":      true,
	"text/csv":        true,
	"image/jpeg":      true,
	"image/png":       true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

// officeTypes maps OOXML extensions to their types; the sniffer sees a zip.
var officeTypes = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// upload is a file read from a multipart request.
type upload struct {
	name        string
	contentType string
	data        []byte
}

// readUpload parses the multipart form and reads the "file" field. It writes
// the error response itself and returns nil on failure.
func readUpload(w http.ResponseWriter, r *http.Request) *upload {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<16)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large, the maximum size is 50 MB")
		return nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "no file provided", Field: "file"})
		return nil
	}
	defer file.Close()

	data, err := readAll(file, header)
	if err != nil {
		fail(w, r, "read upload", err)
		return nil
	}

	ct := imaging.DetectContentType(data[:min(len(data), sniffLen)], header.Filename)
	if ct == "application/zip" {
		if t, ok := officeTypes[strings.ToLower(filepath.Ext(header.Filename))]; ok {
			ct = t
		}
	}
	if strings.HasPrefix(ct, "text/plain") && strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		ct = "text/csv"
	}
	return &upload{name: filepath.Base(header.Filename), contentType: ct, data: data}
}

func readAll(file multipart.File, header *multipart.FileHeader) ([]byte, error) {
	if header.Size > maxUploadSize {
		return nil, invalid("file", "file too large, the maximum size is 50 MB")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, invalid("file", "file is empty")
	}
	return data, nil
}

// extension picks the stored extension: the upload's own when present,
// otherwise one derived from the content type.
func (u *upload) extension() string {
	if ext := strings.ToLower(filepath.Ext(u.name)); ext != "" {
		return ext
	}
	return imaging.Extension(u.contentType)
}

func (a *Admin) requireStorage(w http.ResponseWriter) bool {
	if a.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return false
	}
	return true
}

// removeObjects deletes stored objects best-effort; a leftover object only
// costs space.
func (a *Admin) removeObjects(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := a.Storage.Delete(ctx, key); err != nil {
			slog.Warn("delete stored object failed", "error", err, "key", key)
		}
	}
}

// --- Media ---

// mediaView adds public URLs to a media record.
type mediaView struct {
	models.Media
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

func (a *Admin) viewMedia(m models.Media) mediaView {
	v := mediaView{Media: m}
	if a.Storage != nil {
		v.URL = a.Storage.FileURL(m.StoragePath)
		if m.ThumbnailPath != nil {
			v.ThumbnailURL = a.Storage.FileURL(*m.ThumbnailPath)
		}
	}
	return v
}

// MediaList returns media items, newest first. Query: type (MIME prefix
// such as "image/"), limit, offset.
func (a *Admin) MediaList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	items, err := a.Media.List(r.Context(), r.URL.Query().Get("type"), limit, offset)
	if err != nil {
		fail(w, r, "list media", err)
		return
	}
	total, err := a.Media.Count(r.Context())
	if err != nil {
		fail(w, r, "count media", err)
		return
	}
	views := make([]mediaView, 0, len(items))
	for _, m := range items {
		views = append(views, a.viewMedia(m))
	}
	writeJSON(w, http.StatusOK, newList(views, total))
}

// MediaUpload stores an uploaded image or PDF, with a thumbnail for wide
// raster images, and records it.
func (a *Admin) MediaUpload(w http.ResponseWriter, r *http.Request) {
	if !a.requireStorage(w) {
		return
	}
	up := readUpload(w, r)
	if up == nil {
		return
	}
	if !allowedMediaTypes[up.contentType] {
		fail(w, r, "upload media", invalid("file", "file type %q is not allowed", up.contentType))
		return
	}

	ctx := r.Context()
	key, fileID := storage.NewKey(storage.PrefixMedia, a.now(), up.extension())
	if err := a.Storage.Upload(ctx, key, up.contentType, bytes.NewReader(up.data), int64(len(up.data))); err != nil {
		fail(w, r, "upload media", err)
		return
	}

	m := &models.Media{
		Filename:     fileID + up.extension(),
		OriginalName: up.name,
		MimeType:     up.contentType,
		SizeBytes:    int64(len(up.data)),
		StoragePath:  key,
		UploaderID:   middleware.SessionFromCtx(ctx).UserID,
		AltText:      optional(ptr(r.FormValue("alt_text"))),
		Caption:      optional(ptr(r.FormValue("caption"))),
	}
	if width, height, ok := imaging.Dimensions(up.data, up.contentType); ok {
		m.Width, m.Height = &width, &height
	}

	if imaging.Thumbable(up.contentType) {
		thumb, err := imaging.Thumbnail(up.data, imaging.ThumbMaxWidth)
		switch {
		case err != nil:
			slog.Warn("thumbnail generation failed", "error", err, "key", key)
		case thumb != nil:
			tk := storage.ThumbKey(key)
			if err := a.Storage.Upload(ctx, tk, "image/jpeg", bytes.NewReader(thumb), int64(len(thumb))); err != nil {
				slog.Warn("thumbnail upload failed", "error", err, "key", tk)
			} else {
				m.ThumbnailPath = &tk
			}
		}
	}

	created, err := a.Media.Create(ctx, m)
	if err != nil {
		a.removeObjects(ctx, key, deref(m.ThumbnailPath))
		fail(w, r, "record media", err)
		return
	}
	slog.Info("media uploaded", "media_id", created.ID, "key", key, "type", up.contentType)
	writeJSON(w, http.StatusCreated, a.viewMedia(*created))
}

// MediaUpdate changes the alt text and caption.
func (a *Admin) MediaUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "update media", err)
		return
	}
	var in struct {
		AltText *string `json:"alt_text" validate:"omitempty,max=500"`
		Caption *string `json:"caption" validate:"omitempty,max=1000"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "update media", err)
		return
	}
	if err := a.Media.UpdateMeta(r.Context(), id, optional(in.AltText), optional(in.Caption)); err != nil {
		fail(w, r, "update media", err)
		return
	}
	m, err := a.Media.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "update media", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	writeJSON(w, http.StatusOK, a.viewMedia(*m))
}

// MediaDelete removes the record and its stored objects.
func (a *Admin) MediaDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "delete media", err)
		return
	}
	m, err := a.Media.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, "delete media", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	if a.Storage != nil {
		a.removeObjects(r.Context(), m.StoragePath, deref(m.ThumbnailPath))
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Downloads ---

// DownloadsList returns every download, active or not.
func (a *Admin) DownloadsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Downloads.List(r.Context())
	if err != nil {
		fail(w, r, "list downloads", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, len(items)))
}

// DownloadsCreate stores an uploaded document. Form fields: file, title,
// description, is_active ("false" hides it).
func (a *Admin) DownloadsCreate(w http.ResponseWriter, r *http.Request) {
	if !a.requireStorage(w) {
		return
	}
	up := readUpload(w, r)
	if up == nil {
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(up.name, filepath.Ext(up.name))
	}
	if len([]rune(title)) > maxTitleLen {
		fail(w, r, "create download", invalid("title", "title must be at most %d characters", maxTitleLen))
		return
	}
	if !allowedDownloadTypes[up.contentType] {
		fail(w, r, "create download", invalid("file", "file type %q is not allowed", up.contentType))
		return
	}

	ctx := r.Context()
	key, _ := storage.NewKey(storage.PrefixDownloads, a.now(), up.extension())
	if err := a.Storage.Upload(ctx, key, up.contentType, bytes.NewReader(up.data), int64(len(up.data))); err != nil {
		fail(w, r, "upload download", err)
		return
	}

	d, err := a.Downloads.Create(ctx, &models.Download{
		Title:       title,
		Description: optional(ptr(r.FormValue("description"))),
		FilePath:    key,
		FileName:    up.name,
		FileSize:    int64(len(up.data)),
		MimeType:    up.contentType,
		IsActive:    r.FormValue("is_active") != "false",
	})
	if err != nil {
		a.removeObjects(ctx, key)
		fail(w, r, "create download", err)
		return
	}
	a.Cache.Invalidate(ctx, cache.KeyDownloads)
	writeJSON(w, http.StatusCreated, d)
}

// DownloadsUpdate changes the title, description and active flag.
func (a *Admin) DownloadsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "update download", err)
		return
	}
	var in struct {
		Title       string  `json:"title" validate:"required,max=300"`
		Description *string `json:"description" validate:"omitempty,max=2000"`
		IsActive    bool    `json:"is_active"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "update download", err)
		return
	}
	d := &models.Download{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: optional(in.Description),
		IsActive:    in.IsActive,
	}
	if err := a.Downloads.UpdateMeta(r.Context(), d); err != nil {
		fail(w, r, "update download", err)
		return
	}
	a.Cache.Invalidate(r.Context(), cache.KeyDownloads)

	updated, err := a.Downloads.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "update download", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DownloadsDelete removes the record and its stored file.
func (a *Admin) DownloadsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "delete download", err)
		return
	}
	d, err := a.Downloads.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "delete download", err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "download not found")
		return
	}
	if err := a.Downloads.Delete(r.Context(), id); err != nil {
		fail(w, r, "delete download", err)
		return
	}
	if a.Storage != nil {
		a.removeObjects(r.Context(), d.FilePath)
	}
	a.Cache.Invalidate(r.Context(), cache.KeyDownloads)
	w.WriteHeader(http.StatusNoContent)
}

func ptr[T any](v T) *T { return &v }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
