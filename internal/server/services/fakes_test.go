package services

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/sortify/internal/common"
	"github.com/dmitrijs2005/sortify/internal/dbx"
	"github.com/dmitrijs2005/sortify/internal/server/models"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/downloads"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/projects"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/users"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/versions"
)

// memStore is an in-memory stand-in for every repository the core reads.
type memStore struct {
	mu sync.Mutex

	memberships []models.Membership
	projects    map[int64]*models.Project
	files       map[int64][]int64 // project -> files
	versions    map[int64][]models.FileVersion
	marks       map[[2]int64]int64
	users       map[int64]*models.UserProfile

	// fail maps a method name to the error it returns.
	fail        map[string]error
	appendFails []error
	latestCalls int
}

func newMemStore() *memStore {
	return &memStore{
		projects: map[int64]*models.Project{},
		files:    map[int64][]int64{},
		versions: map[int64][]models.FileVersion{},
		marks:    map[[2]int64]int64{},
		users:    map[int64]*models.UserProfile{},
		fail:     map[string]error{},
	}
}

func (s *memStore) addUser(id int64, name string) {
	s.users[id] = &models.UserProfile{ID: id, FullName: name}
}

func (s *memStore) addProject(p models.Project, fileIDs ...int64) {
	s.projects[p.ID] = &p
	s.files[p.ID] = append(s.files[p.ID], fileIDs...)
}

func (s *memStore) addMember(userID, projectID int64, role string) {
	s.memberships = append(s.memberships, models.Membership{UserID: userID, ProjectID: projectID, Role: role})
}

// upload appends a version the same way the Postgres ledger does.
func (s *memStore) upload(fileID, uploaderID int64, at time.Time) int64 {
	v := models.FileVersion{FileID: fileID, UploaderID: uploaderID, UploadedAt: at}
	if err := s.Append(context.Background(), &v); err != nil {
		panic(err)
	}
	return v.VersionID
}

func (s *memStore) MembershipsOf(ctx context.Context, userID int64) ([]models.Membership, error) {
	if err := s.fail["MembershipsOf"]; err != nil {
		return nil, err
	}
	var out []models.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) GetByID(ctx context.Context, projectID int64) (*models.Project, error) {
	p, ok := s.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", projectID, common.ErrorNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) FileIDs(ctx context.Context, projectID int64) ([]int64, error) {
	if err := s.fail["FileIDs"]; err != nil {
		return nil, err
	}
	return slices.Clone(s.files[projectID]), nil
}

func (s *memStore) ProjectOf(ctx context.Context, fileID int64) (int64, error) {
	for projectID, ids := range s.files {
		if slices.Contains(ids, fileID) {
			return projectID, nil
		}
	}
	return 0, fmt.Errorf("file %d: %w", fileID, common.ErrorNotFound)
}

func (s *memStore) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	if err := s.fail["GetProfile"]; err != nil {
		return nil, err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, common.ErrorNotFound)
	}
	return u, nil
}

func (s *memStore) Append(ctx context.Context, v *models.FileVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.appendFails) > 0 {
		err := s.appendFails[0]
		s.appendFails = s.appendFails[1:]
		return err
	}

	known := false
	for _, ids := range s.files {
		if slices.Contains(ids, v.FileID) {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("file %d: %w", v.FileID, common.ErrorNotFound)
	}

	hist := s.versions[v.FileID]
	var next int64 = 1
	for i := range hist {
		hist[i].IsLatest = false
		next = max(next, hist[i].VersionID+1)
	}
	v.VersionID = next
	v.IsLatest = true
	s.versions[v.FileID] = append(hist, *v)
	return nil
}

func (s *memStore) Latest(ctx context.Context, fileID int64) (*models.LatestVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestCalls++

	if err := s.fail["Latest"]; err != nil {
		return nil, err
	}
	hist := s.versions[fileID]
	var top int64
	for _, v := range hist {
		top = max(top, v.VersionID)
	}
	var candidates []models.FileVersion
	for _, v := range hist {
		if v.IsLatest || v.VersionID == top {
			candidates = append(candidates, v)
		}
	}
	latest, ok := models.ResolveLatest(candidates)
	if !ok {
		return nil, fmt.Errorf("file %d has no versions: %w", fileID, common.ErrorNotFound)
	}
	return &latest, nil
}

func (s *memStore) LatestForProject(ctx context.Context, projectID int64) (*models.FileVersion, error) {
	if err := s.fail["LatestForProject"]; err != nil {
		return nil, err
	}
	var all []models.FileVersion
	for _, fileID := range s.files[projectID] {
		all = append(all, s.versions[fileID]...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("project %d has no versions: %w", projectID, common.ErrorNotFound)
	}
	slices.SortFunc(all, func(a, b models.FileVersion) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(b.VersionID, a.VersionID); c != 0 {
			return c
		}
		return cmp.Compare(a.FileID, b.FileID)
	})
	return &all[0], nil
}

func (s *memStore) Get(ctx context.Context, fileID, versionID int64) (*models.FileVersion, error) {
	for _, v := range s.versions[fileID] {
		if v.VersionID == versionID {
			cp := v
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("file %d version %d: %w", fileID, versionID, common.ErrorNotFound)
}

func (s *memStore) List(ctx context.Context, fileID int64) ([]*models.FileVersion, error) {
	var out []*models.FileVersion
	hist := s.versions[fileID]
	for i := len(hist) - 1; i >= 0; i-- {
		v := hist[i]
		out = append(out, &v)
	}
	return out, nil
}

func (s *memStore) Record(ctx context.Context, userID, fileID, versionID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Get(ctx, fileID, versionID); err != nil {
		return 0, err
	}
	key := [2]int64{userID, fileID}
	s.marks[key] = max(s.marks[key], versionID)
	return s.marks[key], nil
}

func (s *memStore) LastDownloaded(ctx context.Context, userID, fileID int64) (int64, bool, error) {
	if err := s.fail["LastDownloaded"]; err != nil {
		return 0, false, err
	}
	v, ok := s.marks[[2]int64{userID, fileID}]
	return v, ok, nil
}

// memManager hands out memStore for every repository regardless of handle.
type memManager struct {
	store *memStore
}

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memManager) Versions(dbx.DBTX) versions.Repository { return m.store }
func (m *memManager) Downloads(dbx.DBTX) downloads.Repository { return m.store }
func (m *memManager) Projects(dbx.DBTX) projects.Repository { return m.store }
func (m *memManager) Users(dbx.DBTX) users.Repository { return m.store }

type fakePresigner struct {
	mu     sync.Mutex
	putErr error
	getErr error
	keys   []string
}

func (p *fakePresigner) PresignPut(ctx context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	if p.putErr != nil {
		return "", p.putErr
	}
	return "https://blob.test/put/" + key, nil
}

func (p *fakePresigner) PresignGet(ctx context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	if p.getErr != nil {
		return "", p.getErr
	}
	return "https://blob.test/get/" + key, nil
}

func ts(sec int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, sec, 0, time.UTC)
}
