package controllers

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/floraweave/floraweave-backend/api/middleware"
	"github.com/floraweave/floraweave-backend/api/responses"
	"github.com/floraweave/floraweave-backend/api/validators"
	mediasvc "github.com/floraweave/floraweave-backend/internal/media"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

// Multipart form fields are parsed up to this size in memory; larger files
// spill to temp storage.
const uploadMemoryLimit = 32 << 20

func parseUploadKind(raw string) (mediasvc.UploadKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "image", "":
		return mediasvc.UploadKindImage, nil
	case "video":
		return mediasvc.UploadKindVideo, nil
	case "digital":
		return mediasvc.UploadKindDigital, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "kind must be one of image, video, digital")
}

// MediaUpload accepts a multipart upload and stores bytes plus a metadata row.
func MediaUpload(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		kind, err := parseUploadKind(r.FormValue("kind"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field is required"))
			return
		}
		defer file.Close()

		media, err := svc.Upload(r.Context(), &actorID, mediasvc.UploadInput{
			Kind:         kind,
			FileName:     header.Filename,
			ContentType:  header.Header.Get("Content-Type"),
			DeclaredSize: header.Size,
			Body:         file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, media)
	}
}

// MediaDetail returns a stored file's metadata.
func MediaDetail(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID, err := validators.ParsePathUUID(chi.URLParam(r, "mediaId"), "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		media, err := svc.Get(r.Context(), mediaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, media)
	}
}

// MediaDelete removes the metadata row and the bytes on disk.
func MediaDelete(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID, err := validators.ParsePathUUID(chi.URLParam(r, "mediaId"), "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), mediaID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// MediaServe streams public media bytes by storage key. Digital design files
// never live under the public prefixes this route exposes.
func MediaServe(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "media key is required"))
			return
		}
		if strings.HasPrefix(key, string(mediasvc.UploadKindDigital)+"/") {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "digital files are served through purchases"))
			return
		}

		file, err := svc.OpenByKey(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")

		if _, err := io.Copy(w, file); err != nil {
			logg.Error(r.Context(), "streaming media failed", err)
		}
	}
}
