package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/floraweave/floraweave-backend/pkg/config"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

// Service handles uploads for product galleries, design-request references,
// and purchasable digital files.
type Service interface {
	Upload(ctx context.Context, uploadedBy *uuid.UUID, input UploadInput) (*MediaDTO, error)
	Get(ctx context.Context, mediaID uuid.UUID) (*MediaDTO, error)
	OpenByKey(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, mediaID uuid.UUID) error
	Exists(ctx context.Context, mediaID uuid.UUID) (bool, error)
}

// UploadInput is one incoming multipart file. DeclaredSize comes from the
// request and is checked against the cap before any disk write happens.
type UploadInput struct {
	Kind         UploadKind
	FileName     string
	ContentType  string
	DeclaredSize int64
	Body         io.Reader
}

// MediaDTO is the stored file as referenced by products and design requests.
type MediaDTO struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	StorageKey  string    `json:"storage_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

type mediaStore interface {
	Create(ctx context.Context, media *models.Media) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type fileStore interface {
	Save(key string, r io.Reader) (int64, error)
	Open(key string) (io.ReadCloser, error)
	Remove(key string) error
}

type service struct {
	repo  mediaStore
	files fileStore
	cfg   config.MediaConfig
	logg  *logger.Logger
}

// NewService constructs a media service instance.
func NewService(repo mediaStore, files fileStore, cfg config.MediaConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if files == nil {
		return nil, fmt.Errorf("file store required")
	}
	if cfg.MaxImageUploadMB <= 0 || cfg.MaxDigitalUploadMB <= 0 {
		return nil, fmt.Errorf("upload caps must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, files: files, cfg: cfg, logg: logg}, nil
}

// Upload validates type and size, streams the file to storage, and records
// the row. The size cap is enforced twice: on the declared size before any
// byte is written, and on the actual stream while writing.
func (s *service) Upload(ctx context.Context, uploadedBy *uuid.UUID, input UploadInput) (*MediaDTO, error) {
	mediaType, err := sniffMimeType(input.ContentType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload")
	}
	if !mimeAllowed(input.Kind, mediaType) {
		message := fmt.Sprintf("only %s are allowed here", allowedMimeDescription(input.Kind))
		return nil, pkgerrors.New(pkgerrors.CodeValidation, message)
	}

	limit := s.uploadLimit(input.Kind)
	if input.DeclaredSize > limit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, sizeCapMessage(limit))
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body required")
	}

	key := newStorageKey(input.Kind, input.FileName)
	written, err := s.files.Save(key, io.LimitReader(input.Body, limit+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing file")
	}
	if written > limit {
		if removeErr := s.files.Remove(key); removeErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "storage_key", key), "removing oversized upload failed")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, sizeCapMessage(limit))
	}

	row := &models.Media{
		FileName:    safeFileName(input.FileName),
		StorageKey:  key,
		ContentType: mediaType,
		SizeBytes:   written,
		URL:         s.publicURL(key),
		UploadedBy:  uploadedBy,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if removeErr := s.files.Remove(key); removeErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "storage_key", key), "removing orphaned upload failed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording upload")
	}

	s.logg.Info(s.logg.WithField(ctx, "media_id", row.ID.String()), "media uploaded")
	dto := toDTO(row)
	return &dto, nil
}

// Get loads one media row.
func (s *service) Get(ctx context.Context, mediaID uuid.UUID) (*MediaDTO, error) {
	row, err := s.repo.FindByID(ctx, mediaID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading media")
	}
	dto := toDTO(row)
	return &dto, nil
}

// OpenByKey streams a stored file; the caller owns authorization.
func (s *service) OpenByKey(_ context.Context, storageKey string) (io.ReadCloser, error) {
	reader, err := s.files.Open(storageKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "file not found")
	}
	return reader, nil
}

// Delete removes the row and the stored file.
func (s *service) Delete(ctx context.Context, mediaID uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, mediaID)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading media")
	}
	if err := s.repo.Delete(ctx, mediaID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting media")
	}
	if err := s.files.Remove(row.StorageKey); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "storage_key", row.StorageKey), "removing stored file failed")
	}
	return nil
}

// Exists reports whether the media id resolves; used by reference validation.
func (s *service) Exists(ctx context.Context, mediaID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, mediaID)
}

func (s *service) uploadLimit(kind UploadKind) int64 {
	if kind == UploadKindDigital {
		return s.cfg.MaxDigitalUploadBytes()
	}
	return s.cfg.MaxImageUploadBytes()
}

func (s *service) publicURL(key string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
}

func sizeCapMessage(limit int64) string {
	return fmt.Sprintf("file exceeds the %dMB limit", limit>>20)
}

// newStorageKey keeps the original extension but nothing else of the name.
func newStorageKey(kind UploadKind, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%s/%s%s", kind, uuid.NewString(), ext)
}

func safeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "upload"
	}
	return base
}

func toDTO(row *models.Media) MediaDTO {
	return MediaDTO{
		ID:          row.ID,
		FileName:    row.FileName,
		StorageKey:  row.StorageKey,
		ContentType: row.ContentType,
		SizeBytes:   row.SizeBytes,
		URL:         row.URL,
		CreatedAt:   row.CreatedAt,
	}
}
