package project

import (
	"encoding/json"
	"time"
)

// Lifecycle status codes. Everything at StatusContract (30) and above is
// "post-proposal": uploads default to private from there on.
const (
	StatusLead     = 10
	StatusProposal = 20
	StatusContract = 30
	StatusActive   = 40
	StatusComplete = 50
)

type Project struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"column:name;not null" json:"name"`
	Address  string `gorm:"column:address" json:"address"`
	ClientID *int64 `gorm:"column:client_id" json:"client_id,omitempty"`
	Status   int    `gorm:"column:status;default:10" json:"status"`

	// Featured-image pointer plus a denormalized snapshot of the file's
	// display fields. The snapshot is a read optimization only; a fresh
	// signed URL is always minted from its bucket/path.
	FeaturedImageID   *int64 `gorm:"column:featured_image_id" json:"featured_image_id,omitempty"`
	FeaturedImageData string `gorm:"column:featured_image_data" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// FeaturedImage is the cached snapshot stored in featured_image_data.
type FeaturedImage struct {
	FileID     int64  `json:"file_id"`
	FileName   string `json:"file_name"`
	FilePath   string `json:"file_path"`
	BucketName string `json:"bucket_name"`
	FileType   string `json:"file_type"`
	Title      string `json:"title,omitempty"`
}

// FeaturedSnapshot decodes the cached snapshot, if any.
func (p *Project) FeaturedSnapshot() (*FeaturedImage, bool) {
	if p.FeaturedImageData == "" {
		return nil, false
	}
	var fi FeaturedImage
	if err := json.Unmarshal([]byte(p.FeaturedImageData), &fi); err != nil {
		return nil, false
	}
	if fi.FilePath == "" || fi.BucketName == "" {
		// snapshot without bucket/path cannot mint a URL, treat as absent
		return nil, false
	}
	return &fi, true
}

func EncodeFeaturedSnapshot(fi *FeaturedImage) string {
	if fi == nil {
		return ""
	}
	data, err := json.Marshal(fi)
	if err != nil {
		return ""
	}
	return string(data)
}
