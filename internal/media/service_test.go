package media

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/config"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

type fakeMediaStore struct {
	rows map[uuid.UUID]*models.Media
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{rows: map[uuid.UUID]*models.Media{}}
}

func (f *fakeMediaStore) Create(_ context.Context, media *models.Media) error {
	if media.ID == uuid.Nil {
		media.ID = uuid.New()
	}
	clone := *media
	f.rows[media.ID] = &clone
	return nil
}

func (f *fakeMediaStore) FindByID(_ context.Context, id uuid.UUID) (*models.Media, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *row
	return &clone, nil
}

func (f *fakeMediaStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeMediaStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.rows[id]
	return ok, nil
}

func newTestService(t *testing.T) (Service, *fakeMediaStore, string) {
	t.Helper()
	root := t.TempDir()
	files, err := NewDiskStore(root)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	store := newFakeMediaStore()
	svc, err := NewService(store, files, config.MediaConfig{
		StorageRoot:        root,
		PublicBaseURL:      "/media",
		MaxImageUploadMB:   1,
		MaxDigitalUploadMB: 2,
	}, logger.New(logger.Options{ServiceName: "media-test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store, root
}

func TestUploadImage(t *testing.T) {
	svc, store, root := newTestService(t)
	uploader := uuid.New()

	dto, err := svc.Upload(context.Background(), &uploader, UploadInput{
		Kind:         UploadKindImage,
		FileName:     "swatch.PNG",
		ContentType:  "image/png; charset=binary",
		DeclaredSize: 6,
		Body:         bytes.NewReader([]byte("abcdef")),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if dto.ContentType != "image/png" {
		t.Fatalf("content type = %q, want normalized image/png", dto.ContentType)
	}
	if dto.SizeBytes != 6 {
		t.Fatalf("size = %d, want 6", dto.SizeBytes)
	}
	if !strings.HasPrefix(dto.StorageKey, "image/") || !strings.HasSuffix(dto.StorageKey, ".png") {
		t.Fatalf("storage key %q has the wrong shape", dto.StorageKey)
	}
	if dto.URL != "/media/"+dto.StorageKey {
		t.Fatalf("url = %q", dto.URL)
	}

	row, ok := store.rows[dto.ID]
	if !ok || row.UploadedBy == nil || *row.UploadedBy != uploader {
		t.Fatalf("row not recorded with uploader: %+v", row)
	}
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(dto.StorageKey)))
	if err != nil || string(data) != "abcdef" {
		t.Fatalf("stored bytes = %q, err %v", data, err)
	}
}

func TestUploadRejectsWrongType(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), nil, UploadInput{
		Kind:         UploadKindImage,
		FileName:     "pattern.zip",
		ContentType:  "application/zip",
		DeclaredSize: 10,
		Body:         bytes.NewReader([]byte("0123456789")),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadRejectsDeclaredOversize(t *testing.T) {
	svc, store, root := newTestService(t)

	_, err := svc.Upload(context.Background(), nil, UploadInput{
		Kind:         UploadKindImage,
		FileName:     "huge.png",
		ContentType:  "image/png",
		DeclaredSize: 2 << 20,
		Body:         bytes.NewReader([]byte("irrelevant")),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatal("no row should be recorded")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatal("nothing should be written before the size check")
	}
}

func TestUploadRemovesLyingStream(t *testing.T) {
	svc, store, _ := newTestService(t)

	// Declares 10 bytes but streams past the 1MB image cap.
	body := io.MultiReader(
		bytes.NewReader(bytes.Repeat([]byte("a"), 1<<20)),
		bytes.NewReader([]byte("overflow")),
	)
	_, err := svc.Upload(context.Background(), nil, UploadInput{
		Kind:         UploadKindImage,
		FileName:     "liar.png",
		ContentType:  "image/png",
		DeclaredSize: 10,
		Body:         body,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatal("no row should be recorded")
	}
}

func TestUploadDigitalUsesLargerCap(t *testing.T) {
	svc, _, _ := newTestService(t)

	size := int64(1<<20 + 100)
	dto, err := svc.Upload(context.Background(), nil, UploadInput{
		Kind:         UploadKindDigital,
		FileName:     "repeat-tile.zip",
		ContentType:  "application/zip",
		DeclaredSize: size,
		Body:         bytes.NewReader(bytes.Repeat([]byte("z"), int(size))),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if dto.SizeBytes != size {
		t.Fatalf("size = %d, want %d", dto.SizeBytes, size)
	}
}

func TestDeleteRemovesRowAndFile(t *testing.T) {
	svc, store, root := newTestService(t)

	dto, err := svc.Upload(context.Background(), nil, UploadInput{
		Kind:         UploadKindImage,
		FileName:     "gone.png",
		ContentType:  "image/png",
		DeclaredSize: 3,
		Body:         bytes.NewReader([]byte("xyz")),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(context.Background(), dto.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatal("row not deleted")
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(dto.StorageKey))); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	files, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if _, err := files.Save("../escape.txt", bytes.NewReader([]byte("x"))); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if _, err := files.Open(""); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}
