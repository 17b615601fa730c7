package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnqbao/gau-marine-service/entity"
)

var ErrLibraryFileNotFound = errors.New("file not found")

// LibraryRepository serves one of the documents / company_files tables; both
// share the LibraryFile row shape.
type LibraryRepository struct {
	db    *gorm.DB
	table string
}

func NewLibraryRepository(db *gorm.DB, table string) *LibraryRepository {
	return &LibraryRepository{db: db, table: table}
}

func (r *LibraryRepository) Table() string {
	return r.table
}

func (r *LibraryRepository) Create(ctx context.Context, file *entity.LibraryFile) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Table(r.table).Create(file).Error
}

// ListByOwner returns newest first.
func (r *LibraryRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]entity.LibraryFile, error) {
	var files []entity.LibraryFile
	err := r.db.WithContext(ctx).Table(r.table).
		Where("owner_id = ?", owner).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *LibraryRepository) ListByFolder(ctx context.Context, owner uuid.UUID, folderPath string) ([]entity.LibraryFile, error) {
	var files []entity.LibraryFile
	err := r.db.WithContext(ctx).Table(r.table).
		Where("owner_id = ? AND folder_path = ?", owner, folderPath).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *LibraryRepository) FindByID(ctx context.Context, owner, id uuid.UUID) (*entity.LibraryFile, error) {
	var file entity.LibraryFile
	err := r.db.WithContext(ctx).Table(r.table).
		Where("id = ? AND owner_id = ?", id, owner).
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibraryFileNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *LibraryRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Table(r.table).
		Where("id = ? AND owner_id = ?", id, owner).
		Delete(&entity.LibraryFile{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLibraryFileNotFound
	}
	return nil
}

// ReferencedKeys returns every stored object path across owners.
func (r *LibraryRepository) ReferencedKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Table(r.table).Pluck("path", &keys).Error
	return keys, err
}
