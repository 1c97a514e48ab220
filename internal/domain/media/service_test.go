package media

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"firepm/internal/database"
	"firepm/internal/domain/auth"
	"firepm/internal/domain/project"
)

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	signErr   error
	existsErr error
	removeErr error
	uploads   int
	removed   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func objKey(bucket, key string) string { return bucket + "/" + key }

func (f *fakeStore) Upload(_ context.Context, bucket, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[objKey(bucket, key)] = data
	return nil
}

func (f *fakeStore) Remove(_ context.Context, bucket string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	for _, k := range keys {
		delete(f.objects, objKey(bucket, k))
		f.removed = append(f.removed, k)
	}
	return nil
}

func (f *fakeStore) SignedURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed.example/" + bucket + "/" + key, nil
}

func (f *fakeStore) PublicURL(bucket, key string) string {
	return "https://public.example/" + bucket + "/" + key
}

func (f *fakeStore) Exists(_ context.Context, bucket, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.objects[objKey(bucket, key)]
	return ok, nil
}

// drop removes a blob directly, bypassing DeleteMedia.
func (f *fakeStore) drop(bucket, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objKey(bucket, key))
}

type fixture struct {
	db       *gorm.DB
	store    *fakeStore
	svc      *Service
	repo     Repository
	projects project.Repository
	users    auth.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)

	// one connection, or every pooled conn gets its own in-memory DB
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&File{}, &FileVersion{}, &project.Project{}, &auth.User{}))

	store := newFakeStore()
	repo := NewRepository(db)
	projects := project.NewRepository(db)
	users := auth.NewRepository(db)

	return &fixture{
		db:       db,
		store:    store,
		svc:      NewService(repo, projects, users, store, DefaultBucket, time.Hour),
		repo:     repo,
		projects: projects,
		users:    users,
	}
}

func (fx *fixture) newProject(t *testing.T, status int) *project.Project {
	t.Helper()
	p := &project.Project{Name: "Warehouse Sprinkler Retrofit", Status: status}
	require.NoError(t, fx.projects.Create(context.Background(), p))
	return p
}

func (fx *fixture) save(t *testing.T, in SaveInput) *FileView {
	t.Helper()
	if in.MediaData == "" && in.RawData == nil {
		in.RawData = []byte("file contents")
	}
	if in.UserID == 0 {
		in.UserID = 1
	}
	view, err := fx.svc.SaveMedia(context.Background(), in)
	require.NoError(t, err)
	return view
}

func TestSaveMediaFirstVersion(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	view := fx.save(t, SaveInput{
		RawData:        []byte("%PDF-1.7"),
		FileName:       "plan.pdf",
		FileType:       "application/pdf",
		ProjectID:      &p.ID,
		TargetLocation: TargetDocuments,
	})

	assert.Equal(t, 1, view.VersionNumber)
	assert.True(t, view.IsCurrentVersion)
	assert.Nil(t, view.PreviousVersionID)
	assert.Equal(t, DefaultBucket, view.BucketName)
	assert.Regexp(t, `^\d+/documents/\d+-plan\.pdf$`, view.FilePath)
	require.NotNil(t, view.PublicURL)
	assert.Contains(t, *view.PublicURL, view.FilePath)

	// blob was written before the row was inserted
	exists, err := fx.store.Exists(context.Background(), view.BucketName, view.FilePath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestVersionMonotonicity(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	var last *FileView
	for i := 1; i <= 3; i++ {
		last = fx.save(t, SaveInput{
			FileName:       "plan.pdf",
			ProjectID:      &p.ID,
			TargetLocation: TargetDocuments,
		})
		assert.Equal(t, i, last.VersionNumber)
	}

	var all []File
	require.NoError(t, fx.db.Where("project_id = ?", p.ID).Order("version_number").Find(&all).Error)
	require.Len(t, all, 3)

	currents := 0
	for i, f := range all {
		assert.Equal(t, i+1, f.VersionNumber)
		if f.IsCurrentVersion {
			currents++
			assert.Equal(t, last.ID, f.ID)
		}
	}
	assert.Equal(t, 1, currents)
}

func TestArchiveOnSupersede(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	first := fx.save(t, SaveInput{
		RawData:        []byte("version one"),
		FileName:       "plan.pdf",
		FileType:       "application/pdf",
		ProjectID:      &p.ID,
		TargetLocation: TargetDocuments,
	})
	second := fx.save(t, SaveInput{
		RawData:        []byte("version two, different bytes"),
		FileName:       "plan.pdf",
		FileType:       "application/pdf",
		ProjectID:      &p.ID,
		TargetLocation: TargetDocuments,
	})

	require.NotNil(t, second.PreviousVersionID)
	assert.Equal(t, first.ID, *second.PreviousVersionID)

	var archived []FileVersion
	require.NoError(t, fx.db.Find(&archived).Error)
	require.Len(t, archived, 1)

	assert.Equal(t, first.ID, archived[0].FileID)
	assert.Equal(t, 1, archived[0].VersionNumber)
	assert.Equal(t, first.FilePath, archived[0].FilePath)
	assert.Equal(t, first.FileSize, archived[0].FileSize)
	assert.Equal(t, first.FileType, archived[0].FileType)
	assert.Equal(t, first.AuthorID, archived[0].UploadedBy)
}

func TestCustomVersionOverride(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	existing := fx.save(t, SaveInput{
		FileName:       "contract.pdf",
		ProjectID:      &p.ID,
		TargetLocation: TargetContracts,
	})

	custom := 999
	view := fx.save(t, SaveInput{
		FileName:            "contract.pdf",
		ProjectID:           &p.ID,
		TargetLocation:      TargetContracts,
		CustomVersionNumber: &custom,
	})

	assert.Equal(t, 999, view.VersionNumber)
	assert.Nil(t, view.PreviousVersionID)

	// no archive row, and the existing current row is untouched
	var archivedCount int64
	require.NoError(t, fx.db.Model(&FileVersion{}).Count(&archivedCount).Error)
	assert.Zero(t, archivedCount)

	kept, err := fx.repo.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsCurrentVersion)
	assert.Equal(t, 1, kept.VersionNumber)
}

func TestConcurrentSavesSameFileName(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.SaveMedia(context.Background(), SaveInput{
				RawData:        []byte("concurrent upload"),
				FileName:       "plan.pdf",
				ProjectID:      &p.ID,
				TargetLocation: TargetDocuments,
				UserID:         1,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var all []File
	require.NoError(t, fx.db.Where("project_id = ?", p.ID).Order("version_number").Find(&all).Error)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].VersionNumber)
	assert.Equal(t, 2, all[1].VersionNumber)
	assert.False(t, all[0].IsCurrentVersion)
	assert.True(t, all[1].IsCurrentVersion)
}

func TestUploadFailurePreventsInsert(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)
	fx.store.uploadErr = errors.New("storage down")

	_, err := fx.svc.SaveMedia(context.Background(), SaveInput{
		RawData:        []byte("x"),
		FileName:       "plan.pdf",
		ProjectID:      &p.ID,
		TargetLocation: TargetDocuments,
		UserID:         1,
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, fx.db.Model(&File{}).Count(&count).Error)
	assert.Zero(t, count, "metadata insert must never run without a successful upload")
}

func TestInsertFailureRemovesUploadedBlob(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	// force the insert to fail after the upload succeeded
	require.NoError(t, fx.db.Migrator().DropTable(&File{}))

	_, err := fx.svc.SaveMedia(context.Background(), SaveInput{
		RawData:        []byte("x"),
		FileName:       "plan.pdf",
		ProjectID:      &p.ID,
		TargetLocation: TargetDocuments,
		UserID:         1,
	})
	require.Error(t, err)

	assert.Equal(t, 1, fx.store.uploads)
	assert.Len(t, fx.store.removed, 1, "compensation should remove the fresh blob")
	assert.Empty(t, fx.store.objects)
}

func TestSignedURLFailureDoesNotFailSave(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)
	fx.store.signErr = errors.New("presign unavailable")

	view := fx.save(t, SaveInput{
		FileName:       "plan.pdf",
		ProjectID:      &p.ID,
		TargetLocation: TargetDocuments,
	})

	assert.Nil(t, view.PublicURL)
	assert.NotZero(t, view.ID)
}

func TestPrivacyDefaultFromProjectStatus(t *testing.T) {
	fx := newFixture(t)

	early := fx.newProject(t, project.StatusLead)
	late := fx.newProject(t, project.StatusActive)

	pub := fx.save(t, SaveInput{FileName: "intake.pdf", ProjectID: &early.ID, TargetLocation: TargetDocuments})
	require.NotNil(t, pub.IsPrivate)
	assert.False(t, *pub.IsPrivate)

	priv := fx.save(t, SaveInput{FileName: "invoice.pdf", ProjectID: &late.ID, TargetLocation: TargetDocuments})
	require.NotNil(t, priv.IsPrivate)
	assert.True(t, *priv.IsPrivate)
}

func TestPrivacyFailsOpenOnMissingProject(t *testing.T) {
	fx := newFixture(t)

	ghost := int64(4040)
	view := fx.save(t, SaveInput{FileName: "note.pdf", ProjectID: &ghost, TargetLocation: TargetDocuments})
	require.NotNil(t, view.IsPrivate)
	assert.False(t, *view.IsPrivate, "status lookup failure must default to public")
}

func TestVisibilityFiltering(t *testing.T) {
	fx := newFixture(t)

	early := fx.newProject(t, project.StatusLead)
	pub := fx.save(t, SaveInput{FileName: "intake.pdf", ProjectID: &early.ID, TargetLocation: TargetDocuments})

	// flip the project post-proposal and upload a second, private file
	early.Status = project.StatusActive
	require.NoError(t, fx.projects.Update(context.Background(), early))
	priv := fx.save(t, SaveInput{FileName: "invoice.pdf", ProjectID: &early.ID, TargetLocation: TargetDocuments})

	clientResult, err := fx.svc.GetMedia(context.Background(), GetInput{ProjectID: &early.ID, Staff: false})
	require.NoError(t, err)
	clientViews := clientResult.Media.([]*FileView)
	require.Len(t, clientViews, 1)
	assert.Equal(t, pub.ID, clientViews[0].ID)

	staffResult, err := fx.svc.GetMedia(context.Background(), GetInput{ProjectID: &early.ID, Staff: true})
	require.NoError(t, err)
	staffViews := staffResult.Media.([]*FileView)
	require.Len(t, staffViews, 2)

	ids := []int64{staffViews[0].ID, staffViews[1].ID}
	assert.Contains(t, ids, pub.ID)
	assert.Contains(t, ids, priv.ID)
}

func TestPrivateFileHiddenFromClientByID(t *testing.T) {
	fx := newFixture(t)
	late := fx.newProject(t, project.StatusActive)

	priv := fx.save(t, SaveInput{FileName: "invoice.pdf", ProjectID: &late.ID, TargetLocation: TargetDocuments})
	require.NotNil(t, priv.IsPrivate)
	require.True(t, *priv.IsPrivate)

	// knowing the id must not bypass the list-shape filter
	_, err := fx.svc.GetMedia(context.Background(), GetInput{FileID: &priv.ID, Staff: false})
	assert.ErrorIs(t, err, ErrFileNotFound)

	result, err := fx.svc.GetMedia(context.Background(), GetInput{FileID: &priv.ID, Staff: true})
	require.NoError(t, err)
	view := result.Media.(*FileView)
	assert.Equal(t, priv.ID, view.ID)
}

func TestOrphanSelfHeal(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	kept := fx.save(t, SaveInput{FileName: "kept.pdf", ProjectID: &p.ID, TargetLocation: TargetDocuments})
	orphan := fx.save(t, SaveInput{FileName: "orphan.pdf", ProjectID: &p.ID, TargetLocation: TargetDocuments})

	// blob vanishes behind the metadata store's back
	fx.store.drop(orphan.BucketName, orphan.FilePath)

	result, err := fx.svc.GetMedia(context.Background(), GetInput{ProjectID: &p.ID, Staff: true})
	require.NoError(t, err)
	views := result.Media.([]*FileView)
	require.Len(t, views, 1)
	assert.Equal(t, kept.ID, views[0].ID)

	// the orphaned row was pruned as a side effect
	_, err = fx.repo.GetByID(context.Background(), orphan.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestProbeFailureDoesNotPrune(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	f := fx.save(t, SaveInput{FileName: "plan.pdf", ProjectID: &p.ID, TargetLocation: TargetDocuments})
	fx.store.existsErr = errors.New("probe timeout")

	result, err := fx.svc.GetMedia(context.Background(), GetInput{ProjectID: &p.ID, Staff: true})
	require.NoError(t, err)
	views := result.Media.([]*FileView)
	require.Len(t, views, 1, "a failed probe is not a confirmed negative")

	fx.store.existsErr = nil
	got, err := fx.repo.GetByID(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
}

func TestDeleteClearsFeaturedPointer(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	f := fx.save(t, SaveInput{FileName: "hero.jpg", ProjectID: &p.ID, TargetLocation: TargetProject})
	require.NoError(t, fx.projects.SetFeaturedImage(context.Background(), p.ID, &f.ID, &project.FeaturedImage{
		FileID:     f.ID,
		FileName:   f.FileName,
		FilePath:   f.FilePath,
		BucketName: f.BucketName,
		FileType:   f.FileType,
	}))

	deleted, err := fx.svc.DeleteMedia(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, deleted.ID)
	assert.Equal(t, f.FilePath, deleted.FilePath)

	got, err := fx.projects.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FeaturedImageID)
	assert.Empty(t, got.FeaturedImageData)

	// blob went too
	exists, err := fx.store.Exists(context.Background(), f.BucketName, f.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteToleratesStorageFailure(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	f := fx.save(t, SaveInput{FileName: "plan.pdf", ProjectID: &p.ID, TargetLocation: TargetDocuments})
	fx.store.removeErr = errors.New("storage down")

	_, err := fx.svc.DeleteMedia(context.Background(), f.ID)
	require.NoError(t, err, "storage failure must not block metadata cleanup")

	_, err = fx.repo.GetByID(context.Background(), f.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestGetFeaturedImageFromSnapshot(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	f := fx.save(t, SaveInput{FileName: "hero.jpg", ProjectID: &p.ID, TargetLocation: TargetProject})
	require.NoError(t, fx.projects.SetFeaturedImage(context.Background(), p.ID, &f.ID, &project.FeaturedImage{
		FileID:     f.ID,
		FileName:   f.FileName,
		FilePath:   f.FilePath,
		BucketName: f.BucketName,
		FileType:   f.FileType,
	}))

	result, err := fx.svc.GetMedia(context.Background(), GetInput{
		ProjectID: &p.ID,
		MediaType: MediaTypeFeaturedImage,
	})
	require.NoError(t, err)

	view := result.Media.(*FileView)
	assert.True(t, view.IsFeatured)
	assert.Equal(t, f.FilePath, view.FilePath)
	require.NotNil(t, view.PublicURL, "URL must be minted fresh from the cached bucket/path")
	assert.Contains(t, *view.PublicURL, "signed.example")
}

func TestGetFeaturedImageFallsBackToRecord(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	f := fx.save(t, SaveInput{FileName: "hero.jpg", ProjectID: &p.ID, TargetLocation: TargetProject})
	// pointer set without a snapshot (e.g. via updateFeaturedImage)
	require.NoError(t, fx.svc.UpdateFeaturedImage(context.Background(), p.ID, f.ID, true))

	result, err := fx.svc.GetMedia(context.Background(), GetInput{
		ProjectID: &p.ID,
		MediaType: MediaTypeFeaturedImage,
	})
	require.NoError(t, err)

	view := result.Media.(*FileView)
	assert.Equal(t, f.ID, view.ID)
	assert.True(t, view.IsFeatured)
}

func TestGetFeaturedImageBackfillsSnapshotCache(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	f := fx.save(t, SaveInput{FileName: "hero.jpg", ProjectID: &p.ID, TargetLocation: TargetProject})
	require.NoError(t, fx.svc.UpdateFeaturedImage(context.Background(), p.ID, f.ID, true))

	// pointer is set but the cache column is empty until the first read
	got, err := fx.projects.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FeaturedImageData)

	_, err = fx.svc.GetMedia(context.Background(), GetInput{
		ProjectID: &p.ID,
		MediaType: MediaTypeFeaturedImage,
	})
	require.NoError(t, err)

	got, err = fx.projects.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	snap, ok := got.FeaturedSnapshot()
	require.True(t, ok, "read-through should populate the snapshot cache")
	assert.Equal(t, f.ID, snap.FileID)
	assert.Equal(t, f.FilePath, snap.FilePath)
	assert.Equal(t, f.BucketName, snap.BucketName)
}

func TestGetFeaturedImageEmptyIsNotAnError(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	result, err := fx.svc.GetMedia(context.Background(), GetInput{
		ProjectID: &p.ID,
		MediaType: MediaTypeFeaturedImage,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Media)
	assert.NotEmpty(t, result.Message)
}

func TestUpdateFeaturedImageClear(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	f := fx.save(t, SaveInput{FileName: "hero.jpg", ProjectID: &p.ID, TargetLocation: TargetProject})
	require.NoError(t, fx.svc.UpdateFeaturedImage(context.Background(), p.ID, f.ID, true))
	require.NoError(t, fx.svc.UpdateFeaturedImage(context.Background(), p.ID, f.ID, false))

	got, err := fx.projects.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FeaturedImageID)
}

func TestGetSingleFileEnrichesUploaderName(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	u := &auth.User{Email: "inspector@firepm.local", FullName: "Dana Reyes", Role: auth.RoleStaff}
	require.NoError(t, fx.users.Create(context.Background(), u))

	f := fx.save(t, SaveInput{FileName: "report.pdf", ProjectID: &p.ID, TargetLocation: TargetDocuments, UserID: u.ID})

	result, err := fx.svc.GetMedia(context.Background(), GetInput{FileID: &f.ID, Staff: true})
	require.NoError(t, err)

	view := result.Media.(*FileView)
	assert.Equal(t, "Dana Reyes", view.UploaderName)
}

func TestGetMediaRejectsShapelessRequest(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.GetMedia(context.Background(), GetInput{})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestGetVersionsListsLineage(t *testing.T) {
	fx := newFixture(t)
	p := fx.newProject(t, project.StatusLead)

	first := fx.save(t, SaveInput{FileName: "plan.pdf", ProjectID: &p.ID, TargetLocation: TargetDocuments})
	fx.save(t, SaveInput{FileName: "plan.pdf", ProjectID: &p.ID, TargetLocation: TargetDocuments})

	versions, err := fx.svc.GetVersions(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNumber)
}
