package media

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ListFilter narrows a project file listing.
type ListFilter struct {
	ProjectID      int64
	TargetLocation string
	TargetID       *int64
	// PublicOnly restricts to is_private = false OR is_private IS NULL.
	PublicOnly bool
}

type Repository interface {
	Create(ctx context.Context, f *File) error
	GetByID(ctx context.Context, id int64) (*File, error)
	// FindCurrent returns the row flagged as current version for the
	// triple, or ErrFileNotFound.
	FindCurrent(ctx context.Context, projectID int64, targetLocation, fileName string) (*File, error)
	MarkSuperseded(ctx context.Context, id int64) error
	ArchiveVersion(ctx context.Context, v *FileVersion) error
	List(ctx context.Context, f ListFilter) ([]*File, error)
	Delete(ctx context.Context, id int64) error
	// ListVersions returns the archived snapshots for a file lineage,
	// newest first.
	ListVersions(ctx context.Context, fileID int64) ([]*FileVersion, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, f *File) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*File, error) {
	var f File
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) FindCurrent(ctx context.Context, projectID int64, targetLocation, fileName string) (*File, error) {
	var f File
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND target_location = ? AND file_name = ? AND is_current_version = ?",
			projectID, targetLocation, fileName, true).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) MarkSuperseded(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&File{}).
		Where("id = ?", id).
		Update("is_current_version", false).Error
}

func (r *repository) ArchiveVersion(ctx context.Context, v *FileVersion) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]*File, error) {
	q := r.db.WithContext(ctx).Where("project_id = ?", f.ProjectID)
	if f.TargetLocation != "" {
		q = q.Where("target_location = ?", f.TargetLocation)
	}
	if f.TargetID != nil {
		q = q.Where("target_id = ?", *f.TargetID)
	}
	if f.PublicOnly {
		q = q.Where("is_private = ? OR is_private IS NULL", false)
	}

	var files []*File
	err := q.Order("uploaded_at DESC").Find(&files).Error
	return files, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&File{}).Error
}

func (r *repository) ListVersions(ctx context.Context, fileID int64) ([]*FileVersion, error) {
	var versions []*FileVersion
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("version_number DESC").
		Find(&versions).Error
	return versions, err
}
