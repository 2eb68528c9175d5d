package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mmaioli/projects/internal/model"
	"github.com/mmaioli/projects/internal/repository"
	"github.com/mmaioli/projects/internal/storage"
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrPathRequired    = errors.New("path is required")
	ErrNotFound        = errors.New("component not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrAttachmentLimit = errors.New("attachment limit reached")
	ErrTooManyFiles    = errors.New("maximum 1 file is allowed")
)

// attachmentPrefix is the bucket key prefix holding every component's
// attachment, one object at most per component.
const attachmentPrefix = "components"

// ComponentService defines the use cases for handling components. Each
// method maps to one HTTP operation; collaborator failures that are not one
// of the sentinel errors above pass through for the handler to log.
type ComponentService interface {
	// Create mints an identifier and timestamps and persists a new component.
	Create(ctx context.Context, name string) (*model.Component, error)

	// Update applies the supplied fields to an existing component. An empty
	// name and a nil parameters value each mean "leave unchanged".
	Update(ctx context.Context, id, name string, parameters any) (*model.Component, error)

	// Delete removes the component's storage prefix, then its record.
	Delete(ctx context.Context, id string) error

	// List returns every component, newest first.
	List(ctx context.Context) ([]model.Component, error)

	// Get returns a single component by its ID.
	Get(ctx context.Context, id string) (*model.Component, error)

	// UploadAttachment stages the multipart file parts locally, enforces the
	// at-most-one-attachment invariant, and pushes the single staged file to
	// object storage. A request carrying zero files succeeds with nil info.
	UploadAttachment(ctx context.Context, id string, files []*multipart.FileHeader) (*storage.ObjectInfo, error)

	// OpenAttachment opens a streaming reader over the component's stored
	// attachment. The caller owns closing the reader.
	OpenAttachment(ctx context.Context, id, fileName string) (io.ReadCloser, storage.ObjectInfo, error)

	// DownloadBase64 buffers the object at an arbitrary storage path fully in
	// memory and returns it base64-encoded.
	DownloadBase64(ctx context.Context, storagePath string) (string, error)
}

// componentService is a concrete implementation of ComponentService.
type componentService struct {
	store      storage.Storage
	repo       repository.ComponentRepository
	stagingDir string
}

// NewComponentService constructs a new ComponentService. stagingDir is the
// local directory where multipart file parts are staged before upload; it is
// created on demand, one subdirectory per component.
func NewComponentService(store storage.Storage, repo repository.ComponentRepository, stagingDir string) ComponentService {
	return &componentService{store: store, repo: repo, stagingDir: stagingDir}
}

func (s *componentService) Create(ctx context.Context, name string) (*model.Component, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	now := time.Now().UTC()
	comp := &model.Component{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	stored, err := s.repo.Create(ctx, comp)
	if err != nil {
		return nil, fmt.Errorf("create component: %w", err)
	}
	return stored, nil
}

func (s *componentService) Update(ctx context.Context, id, name string, parameters any) (*model.Component, error) {
	comp, err := s.findComponent(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		comp.Name = name
	}
	if parameters != nil {
		b, err := json.Marshal(parameters)
		if err != nil {
			return nil, fmt.Errorf("serialize parameters: %w", err)
		}
		serialized := string(b)
		comp.Parameters = &serialized
	}
	comp.UpdatedAt = time.Now().UTC()

	stored, err := s.repo.Update(ctx, comp)
	if err != nil {
		return nil, fmt.Errorf("update component: %w", err)
	}
	return stored, nil
}

// Delete removes the component's attachment prefix first, then its record.
// A crash between the two leaves a record with no attachment, which the next
// delete attempt cleans up; the reverse order would leak orphaned objects
// that nothing references anymore.
func (s *componentService) Delete(ctx context.Context, id string) error {
	if err := s.store.RemoveFolder(ctx, componentPrefix(id)); err != nil {
		return fmt.Errorf("remove attachment prefix: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete component: %w", err)
	}
	return nil
}

func (s *componentService) List(ctx context.Context) ([]model.Component, error) {
	return s.repo.List(ctx)
}

func (s *componentService) Get(ctx context.Context, id string) (*model.Component, error) {
	return s.findComponent(ctx, id)
}

func (s *componentService) UploadAttachment(ctx context.Context, id string, files []*multipart.FileHeader) (*storage.ObjectInfo, error) {
	if _, err := s.findComponent(ctx, id); err != nil {
		return nil, err
	}

	existing, err := s.store.ListFolder(ctx, componentPrefix(id))
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrAttachmentLimit
	}

	if len(files) == 0 {
		return nil, nil
	}

	stagingDir := filepath.Join(s.stagingDir, id)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	// Stage every part before deciding; the count check below needs the full
	// set, and a partially staged batch must not reach storage.
	g, gctx := errgroup.WithContext(ctx)
	for _, fh := range files {
		g.Go(func() error {
			return stageFile(gctx, stagingDir, fh)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	if len(files) > 1 {
		return nil, ErrTooManyFiles
	}

	fh := files[0]
	fileName := filepath.Base(fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.store.UploadFile(ctx, attachmentKey(id, fileName), filepath.Join(stagingDir, fileName), storage.UploadOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}
	return &info, nil
}

func (s *componentService) OpenAttachment(ctx context.Context, id, fileName string) (io.ReadCloser, storage.ObjectInfo, error) {
	rc, info, err := s.store.GetStream(ctx, attachmentKey(id, fileName))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, ErrFileNotFound
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("open attachment: %w", err)
	}
	return rc, info, nil
}

func (s *componentService) DownloadBase64(ctx context.Context, storagePath string) (string, error) {
	if storagePath == "" {
		return "", ErrPathRequired
	}

	rc, _, err := s.store.GetStream(ctx, storagePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("open object: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read object: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// findComponent maps the repository's missing-row error onto ErrNotFound.
func (s *componentService) findComponent(ctx context.Context, id string) (*model.Component, error) {
	comp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find component: %w", err)
	}
	return comp, nil
}

// stageFile copies one multipart file part to the staging directory under its
// base filename, stripping any path the client sent along.
func stageFile(ctx context.Context, dir string, fh *multipart.FileHeader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open part %q: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, filepath.Base(fh.Filename)))
	if err != nil {
		return fmt.Errorf("create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("stage part %q: %w", fh.Filename, err)
	}
	return dst.Close()
}

func componentPrefix(id string) string {
	return path.Join(attachmentPrefix, id)
}

func attachmentKey(id, fileName string) string {
	return path.Join(attachmentPrefix, id, fileName)
}
