package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tnqbao/gau-marine-service/entity"
	"github.com/tnqbao/gau-marine-service/infra"
	"github.com/tnqbao/gau-marine-service/repository"
	"github.com/tnqbao/gau-marine-service/utils"
)

var (
	ErrNoOwner       = errors.New("no authenticated owner")
	ErrFileNotFound  = repository.ErrLibraryFileNotFound
	ErrInvalidPath   = errors.New("invalid folder path")
	ErrEmptyUpload   = errors.New("empty upload")
	ErrUnknownFolder = errors.New("folder does not exist")
)

type Repository interface {
	Create(ctx context.Context, file *entity.LibraryFile) error
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]entity.LibraryFile, error)
	FindByID(ctx context.Context, owner, id uuid.UUID) (*entity.LibraryFile, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

type ObjectStore interface {
	Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type OrphanReporter interface {
	ReportOrphan(ctx context.Context, owner uuid.UUID, key, reason string) error
}

type Deps struct {
	Repo      Repository
	Objects   ObjectStore
	Orphans   OrphanReporter
	Logger    *infra.LoggerClient
	URLExpiry time.Duration
	Now       func() time.Time
}

type Upload struct {
	Name     string
	Size     int64
	MimeType string
	Body     io.Reader
}

// Library is a virtual folder tree over one flat table of uploaded files.
type Library struct {
	name        string
	tree        []Folder
	categorized bool
	deps        Deps
}

func NewDocuments(deps Deps) *Library {
	return newLibrary("Documents", DocumentTree, false, deps)
}

// NewCompanyFiles stores a category on every row; it defaults to the
// lower-cased top-level folder.
func NewCompanyFiles(deps Deps) *Library {
	return newLibrary("CompanyFiles", CompanyFileTree, true, deps)
}

func newLibrary(name string, tree []Folder, categorized bool, deps Deps) *Library {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.URLExpiry <= 0 {
		deps.URLExpiry = 7 * 24 * time.Hour
	}
	return &Library{name: name, tree: tree, categorized: categorized, deps: deps}
}

func (l *Library) Tree() []Folder {
	return l.tree
}

func (l *Library) List(ctx context.Context, owner uuid.UUID) ([]entity.LibraryFile, error) {
	if owner == uuid.Nil {
		return nil, ErrNoOwner
	}
	files, err := l.deps.Repo.ListByOwner(ctx, owner)
	if err != nil {
		l.deps.Logger.ErrorWithContextf(ctx, err, "[%s] Failed to list files for owner %s: %v", l.name, owner, err)
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// Upload stores the object under {folderPath}/{storage name} and records it.
// If the row cannot be written the object is removed again.
func (l *Library) Upload(ctx context.Context, owner uuid.UUID, folderPath, category string, u Upload) (*entity.LibraryFile, error) {
	if owner == uuid.Nil {
		return nil, ErrNoOwner
	}
	folderPath, err := utils.NormalizeFolderPath(folderPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if folderPath == "" {
		return nil, fmt.Errorf("%w: uploads need a folder", ErrInvalidPath)
	}
	name := strings.TrimSpace(u.Name)
	if name == "" || u.Body == nil {
		return nil, ErrEmptyUpload
	}

	now := l.deps.Now().UTC()
	key := utils.ObjectKey(folderPath, utils.GenerateStorageName(name, now))

	if err := l.deps.Objects.Put(ctx, key, u.Body, u.Size, u.MimeType); err != nil {
		l.deps.Logger.ErrorWithContextf(ctx, err, "[%s] Failed to upload %s: %v", l.name, key, err)
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}

	url, err := l.deps.Objects.PresignedURL(ctx, key, l.deps.URLExpiry)
	if err != nil {
		l.deps.Logger.ErrorWithContextf(ctx, err, "[%s] Failed to sign %s: %v", l.name, key, err)
		l.rollback(ctx, owner, key)
		return nil, fmt.Errorf("sign %s: %w", name, err)
	}

	file := &entity.LibraryFile{
		Name:       name,
		Path:       key,
		FolderPath: folderPath,
		FileURL:    url,
		FileSize:   u.Size,
		MimeType:   u.MimeType,
		OwnerID:    owner,
	}
	if l.categorized {
		file.Category = categoryFor(folderPath, category)
	}

	if err := l.deps.Repo.Create(ctx, file); err != nil {
		l.deps.Logger.ErrorWithContextf(ctx, err, "[%s] Failed to save metadata for %s: %v", l.name, key, err)
		l.rollback(ctx, owner, key)
		return nil, fmt.Errorf("save %s: %w", name, err)
	}

	l.deps.Logger.InfoWithContextf(ctx, "[%s] Owner %s uploaded %s to %s", l.name, owner, name, folderPath)
	return file, nil
}

// Delete removes the object and the row. A storage failure does not block
// the row delete; the object is queued as an orphan instead.
func (l *Library) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if owner == uuid.Nil {
		return ErrNoOwner
	}
	file, err := l.deps.Repo.FindByID(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := l.deps.Objects.Remove(ctx, file.Path); err != nil {
		l.deps.Logger.WarningWithContextf(ctx, "[%s] Failed to delete object %s, deleting metadata anyway: %v", l.name, file.Path, err)
		l.reportOrphan(ctx, owner, file.Path, "library delete: "+err.Error())
	}

	if err := l.deps.Repo.Delete(ctx, owner, id); err != nil {
		l.deps.Logger.ErrorWithContextf(ctx, err, "[%s] Failed to delete metadata %s: %v", l.name, id, err)
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// FileURL signs a fresh URL for a stored file.
func (l *Library) FileURL(ctx context.Context, owner, id uuid.UUID) (string, error) {
	if owner == uuid.Nil {
		return "", ErrNoOwner
	}
	file, err := l.deps.Repo.FindByID(ctx, owner, id)
	if err != nil {
		return "", err
	}
	return l.deps.Objects.PresignedURL(ctx, file.Path, l.deps.URLExpiry)
}

type Listing struct {
	Path    string               `json:"path"`
	Folders []string             `json:"folders"`
	Files   []entity.LibraryFile `json:"files"`
}

// Browse merges the static folders at path with the owner's files stored
// there and any folders created below it by uploads.
func (l *Library) Browse(ctx context.Context, owner uuid.UUID, path string) (*Listing, error) {
	if owner == uuid.Nil {
		return nil, ErrNoOwner
	}
	path, err := utils.NormalizeFolderPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	files, err := l.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	static, known := lookup(l.tree, path)
	listing := &Listing{Path: path, Folders: []string{}, Files: []entity.LibraryFile{}}
	for _, f := range static {
		listing.Folders = append(listing.Folders, f.Name)
	}

	prefix := path + "/"
	if path == "" {
		prefix = ""
	}
	for _, f := range files {
		if l.inFolder(f, path) {
			listing.Files = append(listing.Files, f)
			continue
		}
		if !strings.HasPrefix(f.FolderPath, prefix) || f.FolderPath == path {
			continue
		}
		known = true
		sub, _, _ := strings.Cut(strings.TrimPrefix(f.FolderPath, prefix), "/")
		if !slices.Contains(listing.Folders, sub) && !l.hasStaticPrefix(static, sub) {
			listing.Folders = append(listing.Folders, sub)
		}
	}

	if !known && len(listing.Files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFolder, path)
	}
	return listing, nil
}

func (l *Library) inFolder(f entity.LibraryFile, path string) bool {
	if path == "" {
		return false
	}
	if l.categorized && !strings.Contains(path, "/") {
		return f.Category == strings.ToLower(path)
	}
	return f.FolderPath == path
}

// hasStaticPrefix reports whether sub is the first segment of a static folder
// name that itself contains "/".
func (l *Library) hasStaticPrefix(static []Folder, sub string) bool {
	for _, f := range static {
		if first, _, _ := strings.Cut(f.Name, "/"); first == sub {
			return true
		}
	}
	return false
}

func (l *Library) rollback(ctx context.Context, owner uuid.UUID, key string) {
	if err := l.deps.Objects.Remove(ctx, key); err != nil {
		l.deps.Logger.WarningWithContextf(ctx, "[%s] Failed to roll back upload %s: %v", l.name, key, err)
		l.reportOrphan(ctx, owner, key, "upload rollback: "+err.Error())
	}
}

func (l *Library) reportOrphan(ctx context.Context, owner uuid.UUID, key, reason string) {
	if l.deps.Orphans == nil {
		return
	}
	if err := l.deps.Orphans.ReportOrphan(ctx, owner, key, reason); err != nil {
		l.deps.Logger.ErrorWithContextf(ctx, err, "[%s] Failed to report orphan %s: %v", l.name, key, err)
	}
}

func categoryFor(folderPath, category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category != "" {
		return category
	}
	first, _, _ := strings.Cut(folderPath, "/")
	return strings.ToLower(first)
}
