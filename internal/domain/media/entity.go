package media

import "time"

// TargetLocation is the logical upload destination. It drives the storage
// path prefix and, indirectly, the access rules of the stored file.
type TargetLocation string

const (
	TargetDiscussions  TargetLocation = "discussions"
	TargetDocuments    TargetLocation = "documents"
	TargetContracts    TargetLocation = "contracts"
	TargetFinals       TargetLocation = "finals"
	TargetDeliverables TargetLocation = "deliverables" // pathing alias of finals
	TargetProfiles     TargetLocation = "profiles"
	TargetProject      TargetLocation = "project" // default general bucket
)

// File is one physical blob plus its version lineage. For a given
// (project_id, target_location, file_name) at most one row has
// is_current_version = true.
type File struct {
	ID             int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID      *int64 `gorm:"column:project_id;index" json:"project_id,omitempty"`
	AuthorID       int64  `gorm:"column:author_id" json:"author_id"`
	FilePath       string `gorm:"column:file_path;not null" json:"file_path"`
	FileName       string `gorm:"column:file_name;not null" json:"file_name"`
	FileSize       int64  `gorm:"column:file_size" json:"file_size"`
	FileType       string `gorm:"column:file_type" json:"file_type"`
	Title          string `gorm:"column:title" json:"title,omitempty"`
	Comments       string `gorm:"column:comments" json:"comments,omitempty"`
	BucketName     string `gorm:"column:bucket_name;not null" json:"bucket_name"`
	TargetLocation string `gorm:"column:target_location;index" json:"target_location"`
	TargetID       *int64 `gorm:"column:target_id" json:"target_id,omitempty"`

	VersionNumber     int    `gorm:"column:version_number;default:1" json:"version_number"`
	PreviousVersionID *int64 `gorm:"column:previous_version_id" json:"previous_version_id,omitempty"`
	IsCurrentVersion  bool   `gorm:"column:is_current_version;default:true" json:"is_current_version"`

	// Nullable: rows created before the flag existed read as public.
	IsPrivate *bool `gorm:"column:is_private" json:"is_private,omitempty"`

	// Checkout / assignment workflow metadata.
	CheckedOutBy  *int64     `gorm:"column:checked_out_by" json:"checked_out_by,omitempty"`
	CheckedOutAt  *time.Time `gorm:"column:checked_out_at" json:"checked_out_at,omitempty"`
	AssignedTo    *int64     `gorm:"column:assigned_to" json:"assigned_to,omitempty"`
	AssignedAt    *time.Time `gorm:"column:assigned_at" json:"assigned_at,omitempty"`
	CheckoutNotes string     `gorm:"column:checkout_notes" json:"checkout_notes,omitempty"`

	UploadedAt time.Time `gorm:"column:uploaded_at;autoCreateTime" json:"uploaded_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (File) TableName() string { return "files" }

// FileVersion is an immutable snapshot of a File at the moment it was
// superseded, written before the replacing row is inserted.
type FileVersion struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FileID        int64     `gorm:"column:file_id;index" json:"file_id"`
	VersionNumber int       `gorm:"column:version_number" json:"version_number"`
	FilePath      string    `gorm:"column:file_path" json:"file_path"`
	FileSize      int64     `gorm:"column:file_size" json:"file_size"`
	FileType      string    `gorm:"column:file_type" json:"file_type"`
	UploadedBy    int64     `gorm:"column:uploaded_by" json:"uploaded_by"`
	Notes         string    `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (FileVersion) TableName() string { return "file_versions" }
