package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"firepm/internal/domain/project"
	"firepm/internal/storage"
)

// MediaTypeFeaturedImage selects the featured-image request shape of
// GetMedia.
const MediaTypeFeaturedImage = "featuredImage"

// ProjectStore is the slice of the project domain the media subsystem
// consumes: status for the privacy default, featured-image pointer for
// annotation and cleanup.
type ProjectStore interface {
	GetByID(ctx context.Context, id int64) (*project.Project, error)
	SetFeaturedImage(ctx context.Context, projectID int64, fileID *int64, snapshot *project.FeaturedImage) error
}

// UserDirectory resolves user ids to display names for read enrichment.
type UserDirectory interface {
	DisplayNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Service orchestrates path routing, version resolution, blob upload and
// metadata bookkeeping for project media.
type Service struct {
	repo     Repository
	projects ProjectStore
	users    UserDirectory
	store    storage.ObjectStore
	bucket   string
	urlTTL   time.Duration

	// per-(project, target, name) locks around the read-decide-write
	// sequence; guards the versioning invariant within one process only
	saveLocks sync.Map
}

func NewService(repo Repository, projects ProjectStore, users UserDirectory, store storage.ObjectStore, bucket string, urlTTL time.Duration) *Service {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if urlTTL <= 0 {
		urlTTL = time.Hour
	}
	return &Service{
		repo:     repo,
		projects: projects,
		users:    users,
		store:    store,
		bucket:   bucket,
		urlTTL:   urlTTL,
	}
}

// FileView is a File enriched for API responses. URLs are minted fresh
// per response and never persisted; they expire on their own.
type FileView struct {
	File
	PublicURL        *string `json:"public_url"`
	IsFeatured       bool    `json:"is_featured"`
	UploaderName     string  `json:"uploader_name,omitempty"`
	AssignedToName   string  `json:"assigned_to_name,omitempty"`
	CheckedOutByName string  `json:"checked_out_by_name,omitempty"`
}

type SaveInput struct {
	// MediaData is a base64 data URI or bare base64 string; RawData
	// carries bytes directly (multipart uploads). One of the two.
	MediaData string
	RawData   []byte

	FileName       string
	FileType       string
	ProjectID      *int64
	TargetLocation TargetLocation
	TargetID       *int64
	Title          string
	Description    string

	// CustomVersionNumber is the external-version override used for
	// system-generated documents; it skips the supersede/archive step.
	CustomVersionNumber *int

	UserID int64
}

// SaveMedia uploads a payload and records its metadata. The blob is
// written before the metadata row so a row never references a missing
// blob; a failed insert removes the fresh blob again, best-effort.
func (s *Service) SaveMedia(ctx context.Context, in SaveInput) (*FileView, error) {
	if strings.TrimSpace(in.FileName) == "" {
		return nil, ErrMissingName
	}

	data := in.RawData
	contentType := in.FileType
	if len(data) == 0 {
		var err error
		data, contentType, err = decodePayload(in.MediaData, in.FileType)
		if err != nil {
			return nil, err
		}
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	target := in.TargetLocation
	if target == "" {
		target = TargetProject
	}

	loc := ResolveStorageLocation(target, in.ProjectID, in.TargetID, &in.UserID)
	loc.Bucket = s.bucket

	versioned := in.ProjectID != nil && in.TargetLocation != ""
	if versioned {
		unlock := s.lockLineage(*in.ProjectID, string(target), in.FileName)
		defer unlock()
	}

	versionNumber := 1
	var previousID *int64

	switch {
	case in.CustomVersionNumber != nil:
		// version tracking is externally managed; use verbatim and do
		// not touch any existing current row
		versionNumber = *in.CustomVersionNumber
	case versioned:
		current, err := s.repo.FindCurrent(ctx, *in.ProjectID, string(target), in.FileName)
		switch {
		case err == nil:
			versionNumber = current.VersionNumber + 1
			previousID = &current.ID
			if err := s.archiveCurrent(ctx, current); err != nil {
				return nil, err
			}
		case errors.Is(err, ErrFileNotFound):
			// first upload of this name
		default:
			// availability over strict versioning: degrade to version 1
			log.Printf("media version lookup failed, treating as first version project=%d name=%s error=%q",
				*in.ProjectID, in.FileName, err)
		}
	}

	key := objectKey(loc.PathPrefix, in.FileName, time.Now())
	if err := s.store.Upload(ctx, loc.Bucket, key, data, contentType); err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}

	isPrivate := false
	if in.ProjectID != nil {
		p, err := s.projects.GetByID(ctx, *in.ProjectID)
		if err != nil {
			// fail open: hiding a file from its own uploader is worse
			// than a privacy miss
			log.Printf("media privacy lookup failed, defaulting to public project=%d error=%q", *in.ProjectID, err)
		} else {
			isPrivate = PrivateForStatus(p.Status)
		}
	}

	rec := &File{
		ProjectID:         in.ProjectID,
		AuthorID:          in.UserID,
		FilePath:          key,
		FileName:          in.FileName,
		FileSize:          int64(len(data)),
		FileType:          contentType,
		Title:             in.Title,
		Comments:          in.Description,
		BucketName:        loc.Bucket,
		TargetLocation:    string(target),
		TargetID:          in.TargetID,
		VersionNumber:     versionNumber,
		PreviousVersionID: previousID,
		IsCurrentVersion:  true,
		IsPrivate:         &isPrivate,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		// compensate: close the orphan window instead of waiting for
		// read-time reconciliation
		if rmErr := s.store.Remove(ctx, loc.Bucket, []string{key}); rmErr != nil {
			log.Printf("orphan blob cleanup failed bucket=%s key=%s error=%q", loc.Bucket, key, rmErr)
		}
		return nil, fmt.Errorf("insert file record: %w", err)
	}

	view := &FileView{File: *rec}
	if url, err := s.store.SignedURL(ctx, loc.Bucket, key, s.urlTTL); err != nil {
		// URL is nice-to-have; the row is valid without it
		log.Printf("signed url mint failed bucket=%s key=%s error=%q", loc.Bucket, key, err)
	} else {
		view.PublicURL = &url
	}
	return view, nil
}

// archiveCurrent snapshots the pre-update state of the current row and
// unflags it. The snapshot must land before the replacing insert; a
// failure here aborts the save.
func (s *Service) archiveCurrent(ctx context.Context, current *File) error {
	archived := &FileVersion{
		FileID:        current.ID,
		VersionNumber: current.VersionNumber,
		FilePath:      current.FilePath,
		FileSize:      current.FileSize,
		FileType:      current.FileType,
		UploadedBy:    current.AuthorID,
		Notes:         current.Comments,
	}
	if err := s.repo.ArchiveVersion(ctx, archived); err != nil {
		return fmt.Errorf("archive superseded version: %w", err)
	}
	if err := s.repo.MarkSuperseded(ctx, current.ID); err != nil {
		return fmt.Errorf("unflag superseded version: %w", err)
	}
	return nil
}

func (s *Service) lockLineage(projectID int64, target, name string) func() {
	key := fmt.Sprintf("%d|%s|%s", projectID, target, name)
	v, _ := s.saveLocks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

type GetInput struct {
	FileID         *int64
	ProjectID      *int64
	TargetLocation string
	TargetID       *int64
	MediaType      string

	Staff bool
}

// GetResult carries one file, a file list, or nil media ("no featured
// image" is a valid state, not an error).
type GetResult struct {
	Media   any    `json:"media"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

// GetMedia serves the three read shapes: featured image, single file,
// project file list. Read paths also perform storage/metadata
// reconciliation: rows whose blob is confirmed missing are pruned and
// excluded.
func (s *Service) GetMedia(ctx context.Context, in GetInput) (*GetResult, error) {
	switch {
	case in.MediaType == MediaTypeFeaturedImage && in.ProjectID != nil:
		return s.getFeaturedImage(ctx, *in.ProjectID)
	case in.FileID != nil:
		return s.getSingleFile(ctx, *in.FileID, in.Staff)
	case in.ProjectID != nil:
		return s.listProjectFiles(ctx, in)
	default:
		return nil, ErrBadRequest
	}
}

func (s *Service) getFeaturedImage(ctx context.Context, projectID int64) (*GetResult, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// prefer the denormalized snapshot; the URL is still minted fresh
	// against its stored bucket/path, never trusted from any cache
	if snap, ok := p.FeaturedSnapshot(); ok {
		view := &FileView{
			File: File{
				ID:         snap.FileID,
				ProjectID:  &p.ID,
				FileName:   snap.FileName,
				FilePath:   snap.FilePath,
				BucketName: snap.BucketName,
				FileType:   snap.FileType,
				Title:      snap.Title,
			},
			IsFeatured: true,
		}
		if url, err := s.store.SignedURL(ctx, snap.BucketName, snap.FilePath, s.urlTTL); err != nil {
			log.Printf("signed url mint failed file=%d error=%q", snap.FileID, err)
		} else {
			view.PublicURL = &url
		}
		return &GetResult{Media: view}, nil
	}

	if p.FeaturedImageID != nil {
		f, err := s.repo.GetByID(ctx, *p.FeaturedImageID)
		if err != nil {
			if errors.Is(err, ErrFileNotFound) {
				// stale pointer; treat as no featured image
				return &GetResult{Message: "project has no featured image"}, nil
			}
			return nil, err
		}

		// read-through: cache the resolved record so the next fetch
		// skips the files lookup
		snap := &project.FeaturedImage{
			FileID:     f.ID,
			FileName:   f.FileName,
			FilePath:   f.FilePath,
			BucketName: f.BucketName,
			FileType:   f.FileType,
			Title:      f.Title,
		}
		if err := s.projects.SetFeaturedImage(ctx, projectID, p.FeaturedImageID, snap); err != nil {
			log.Printf("featured snapshot cache write failed project=%d file=%d error=%q", projectID, f.ID, err)
		}

		return &GetResult{Media: s.buildView(ctx, f, true)}, nil
	}

	return &GetResult{Message: "project has no featured image"}, nil
}

func (s *Service) getSingleFile(ctx context.Context, fileID int64, staff bool) (*GetResult, error) {
	f, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	// same read-time rule as the list shape; a private row is
	// indistinguishable from a missing one for client callers
	if !Visible(f, staff) {
		return nil, ErrFileNotFound
	}

	if s.pruneIfOrphaned(ctx, f) {
		return nil, ErrFileNotFound
	}

	view := s.buildView(ctx, f, s.isFeatured(ctx, f))
	s.enrichNames(ctx, []*FileView{view})
	return &GetResult{Media: view}, nil
}

func (s *Service) listProjectFiles(ctx context.Context, in GetInput) (*GetResult, error) {
	files, err := s.repo.List(ctx, ListFilter{
		ProjectID:      *in.ProjectID,
		TargetLocation: in.TargetLocation,
		TargetID:       in.TargetID,
		PublicOnly:     !in.Staff,
	})
	if err != nil {
		return nil, fmt.Errorf("list project files: %w", err)
	}

	var featured *int64
	if p, err := s.projects.GetByID(ctx, *in.ProjectID); err == nil {
		featured = p.FeaturedImageID
	} else {
		log.Printf("featured pointer lookup failed project=%d error=%q", *in.ProjectID, err)
	}

	// one concurrent probe+mint batch across the page instead of a
	// sequential loop; each goroutine writes its own slot
	type probe struct {
		exists   bool
		probeErr error
		url      *string
	}
	probes := make([]probe, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f *File) {
			defer wg.Done()
			exists, err := s.store.Exists(ctx, f.BucketName, f.FilePath)
			probes[i].exists = exists
			probes[i].probeErr = err
			if err != nil || !exists {
				return
			}
			if url, err := s.store.SignedURL(ctx, f.BucketName, f.FilePath, s.urlTTL); err != nil {
				log.Printf("signed url mint failed file=%d error=%q", f.ID, err)
			} else {
				probes[i].url = &url
			}
		}(i, f)
	}
	wg.Wait()

	views := make([]*FileView, 0, len(files))
	for i, f := range files {
		if probes[i].probeErr != nil {
			// probe failure is not a confirmed negative; keep the row
			log.Printf("media existence probe failed file=%d key=%s error=%q", f.ID, f.FilePath, probes[i].probeErr)
		} else if !probes[i].exists {
			log.Printf("media orphan pruned file=%d key=%s", f.ID, f.FilePath)
			if err := s.repo.Delete(ctx, f.ID); err != nil {
				log.Printf("media orphan delete failed file=%d error=%q", f.ID, err)
			} else if featured != nil && *featured == f.ID {
				s.clearFeaturedIfPointing(ctx, f)
				featured = nil
			}
			continue
		}

		view := &FileView{File: *f, PublicURL: probes[i].url}
		view.IsFeatured = featured != nil && *featured == f.ID
		views = append(views, view)
	}

	s.enrichNames(ctx, views)

	count := len(views)
	return &GetResult{Media: views, Count: &count}, nil
}

// GetVersions lists the archived snapshots of a file lineage.
func (s *Service) GetVersions(ctx context.Context, fileID int64) ([]*FileVersion, error) {
	if _, err := s.repo.GetByID(ctx, fileID); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, fileID)
}

type DeletedFile struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
}

// DeleteMedia removes the blob (best-effort) and then the metadata row
// (authoritative). Storage-then-metadata keeps an already-missing blob
// from blocking cleanup; a dangling metadata row is user-visible, an
// orphaned blob is not.
func (s *Service) DeleteMedia(ctx context.Context, fileID int64) (*DeletedFile, error) {
	f, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Remove(ctx, f.BucketName, []string{f.FilePath}); err != nil {
		log.Printf("media blob removal failed file=%d key=%s error=%q", f.ID, f.FilePath, err)
	}

	if err := s.repo.Delete(ctx, f.ID); err != nil {
		return nil, fmt.Errorf("delete file record: %w", err)
	}

	s.clearFeaturedIfPointing(ctx, f)

	return &DeletedFile{ID: f.ID, FileName: f.FileName, FilePath: f.FilePath}, nil
}

// UpdateFeaturedImage sets or clears a project's featured-image pointer.
// Setting does not validate the referenced file; the next read
// reconciles a stale pointer. The snapshot cache is cleared on every
// pointer change.
func (s *Service) UpdateFeaturedImage(ctx context.Context, projectID, fileID int64, isActive bool) error {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return err
	}
	if !isActive {
		return s.projects.SetFeaturedImage(ctx, projectID, nil, nil)
	}
	return s.projects.SetFeaturedImage(ctx, projectID, &fileID, nil)
}

// pruneIfOrphaned deletes the metadata row when its blob is confirmed
// missing from storage, and reports whether the row was an orphan. A
// failed probe is not a confirmation and leaves the row alone.
func (s *Service) pruneIfOrphaned(ctx context.Context, f *File) bool {
	exists, err := s.store.Exists(ctx, f.BucketName, f.FilePath)
	if err != nil {
		log.Printf("media existence probe failed file=%d key=%s error=%q", f.ID, f.FilePath, err)
		return false
	}
	if exists {
		return false
	}

	log.Printf("media orphan pruned file=%d key=%s", f.ID, f.FilePath)
	if err := s.repo.Delete(ctx, f.ID); err != nil {
		log.Printf("media orphan delete failed file=%d error=%q", f.ID, err)
		return true // still excluded from results
	}
	s.clearFeaturedIfPointing(ctx, f)
	return true
}

func (s *Service) clearFeaturedIfPointing(ctx context.Context, f *File) {
	if f.ProjectID == nil {
		return
	}
	p, err := s.projects.GetByID(ctx, *f.ProjectID)
	if err != nil || p.FeaturedImageID == nil || *p.FeaturedImageID != f.ID {
		return
	}
	if err := s.projects.SetFeaturedImage(ctx, p.ID, nil, nil); err != nil {
		log.Printf("clear featured pointer failed project=%d file=%d error=%q", p.ID, f.ID, err)
	}
}

func (s *Service) buildView(ctx context.Context, f *File, featured bool) *FileView {
	view := &FileView{File: *f, IsFeatured: featured}
	if url, err := s.store.SignedURL(ctx, f.BucketName, f.FilePath, s.urlTTL); err != nil {
		log.Printf("signed url mint failed file=%d error=%q", f.ID, err)
	} else {
		view.PublicURL = &url
	}
	return view
}

func (s *Service) isFeatured(ctx context.Context, f *File) bool {
	if f.ProjectID == nil {
		return false
	}
	p, err := s.projects.GetByID(ctx, *f.ProjectID)
	return err == nil && p.FeaturedImageID != nil && *p.FeaturedImageID == f.ID
}

func (s *Service) enrichNames(ctx context.Context, views []*FileView) {
	idSet := make(map[int64]struct{})
	for _, v := range views {
		if v.AuthorID != 0 {
			idSet[v.AuthorID] = struct{}{}
		}
		if v.AssignedTo != nil {
			idSet[*v.AssignedTo] = struct{}{}
		}
		if v.CheckedOutBy != nil {
			idSet[*v.CheckedOutBy] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	names, err := s.users.DisplayNames(ctx, ids)
	if err != nil {
		log.Printf("media name enrichment failed error=%q", err)
		return
	}

	for _, v := range views {
		v.UploaderName = names[v.AuthorID]
		if v.AssignedTo != nil {
			v.AssignedToName = names[*v.AssignedTo]
		}
		if v.CheckedOutBy != nil {
			v.CheckedOutByName = names[*v.CheckedOutBy]
		}
	}
}
