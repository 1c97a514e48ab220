package project

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, clientID *int64) ([]*Project, error)
	SearchByName(ctx context.Context, name string) ([]*Project, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id int64) error
	// SetFeaturedImage updates both the pointer and the snapshot cache.
	// A nil fileID clears both.
	SetFeaturedImage(ctx context.Context, projectID int64, fileID *int64, snapshot *FeaturedImage) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Project, error) {
	var p Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, clientID *int64) ([]*Project, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if clientID != nil {
		q = q.Where("client_id = ?", *clientID)
	}
	var projects []*Project
	err := q.Find(&projects).Error
	return projects, err
}

func (r *repository) SearchByName(ctx context.Context, name string) ([]*Project, error) {
	var projects []*Project
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%").
		Order("created_at DESC").
		Limit(10).
		Find(&projects).Error
	return projects, err
}

func (r *repository) Update(ctx context.Context, p *Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&Project{}).Error
}

func (r *repository) SetFeaturedImage(ctx context.Context, projectID int64, fileID *int64, snapshot *FeaturedImage) error {
	data := ""
	if fileID != nil {
		data = EncodeFeaturedSnapshot(snapshot)
	}
	return r.db.WithContext(ctx).Model(&Project{}).
		Where("id = ?", projectID).
		Updates(map[string]interface{}{
			"featured_image_id":   fileID,
			"featured_image_data": data,
		}).Error
}
