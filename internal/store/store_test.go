package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/priyankraghav/sentra/internal/store"
	"github.com/priyankraghav/sentra/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sentra_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

// defaultTenantID returns the UUID of the seeded default tenant.
func defaultTenantID(t *testing.T, s store.Store) uuid.UUID {
	t.Helper()
	tenant, err := s.GetDefaultTenant(context.Background())
	require.NoError(t, err)
	return tenant.ID
}

// insertAsset seeds an asset row directly; the orchestrator only reads assets.
func insertAsset(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, name, ip string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO assets (id, tenant_id, name, ip_address) VALUES ($1, $2, $3, $4)`,
		id, tenantID, name, ip)
	require.NoError(t, err)
	return id
}

func insertVulnerability(t *testing.T, pool *pgxpool.Pool, tenantID, assetID uuid.UUID, severity, status string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO vulnerabilities (id, tenant_id, asset_id, title, severity, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, tenantID, assetID, "vuln-"+severity, severity, status)
	require.NoError(t, err)
	return id
}

func newPendingJob(tenantID uuid.UUID) *models.Job {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Job{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Kind:      models.JobKindScan,
		Subtype:   models.ScanTypeNetwork,
		Status:    models.JobStatusPending,
		Config:    models.JobConfig{Endpoints: []string{"10.0.0.1"}, Ports: []int{22, 443}},
		CreatedBy: uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- Tenant Tests ---

func TestGetDefaultTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	tenant, err := s.GetDefaultTenant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "default", tenant.Name)
	assert.NotEqual(t, uuid.Nil, tenant.ID)
}

// --- API Key Tests ---

func TestAPIKey_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	now := time.Now().UTC().Truncate(time.Microsecond)
	key := &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "test-key",
		KeyHash:   "bcrypt-hash-here",
		KeyPrefix: "sn_abcd",
		Scopes:    []string{"read", "write"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.CreateAPIKey(ctx, key)
	require.NoError(t, err)

	// Get by prefix
	keys, err := s.GetAPIKeyByPrefix(ctx, "sn_abcd")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, "test-key", keys[0].Name)
}

func TestAPIKey_List(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 3; i++ {
		err := s.CreateAPIKey(ctx, &models.APIKey{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Name:      "key-" + uuid.NewString()[:4],
			KeyHash:   "hash-" + uuid.NewString()[:4],
			KeyPrefix: "sn_" + uuid.NewString()[:4],
			Scopes:    []string{"read"},
			CreatedAt: now,
			UpdatedAt: now,
		})
		require.NoError(t, err)
	}

	keys, err := s.ListAPIKeys(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestAPIKey_Revoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	key := &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "revoke-me",
		KeyHash:   "hash",
		KeyPrefix: "sn_revk",
		Scopes:    []string{"read"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	// Revoke
	err := s.RevokeAPIKey(ctx, key.ID, tenantID)
	require.NoError(t, err)

	// Should not appear in list or prefix lookup
	keys, err := s.ListAPIKeys(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = s.GetAPIKeyByPrefix(ctx, "sn_revk")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAPIKey_RevokeNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.RevokeAPIKey(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAPIKey_UpdateLastUsed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	key := &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "usage-key",
		KeyHash:   "hash",
		KeyPrefix: "sn_used",
		Scopes:    []string{"read"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	err := s.UpdateAPIKeyLastUsed(ctx, key.ID)
	require.NoError(t, err)

	keys, err := s.GetAPIKeyByPrefix(ctx, "sn_used")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotNil(t, keys[0].LastUsedAt)
}

func TestAPIKey_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	id := uuid.New()
	key := &models.APIKey{
		ID: id, TenantID: tenantID, Name: "dup1", KeyHash: "h1", KeyPrefix: "sn_dup1",
		Scopes: []string{"read"}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	key2 := &models.APIKey{
		ID: id, TenantID: tenantID, Name: "dup2", KeyHash: "h2", KeyPrefix: "sn_dup2",
		Scopes: []string{"read"}, CreatedAt: now, UpdatedAt: now,
	}
	err := s.CreateAPIKey(ctx, key2)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

// --- Job Tests ---

func TestJob_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.Equal(t, models.JobKindScan, got.Kind)
	assert.Equal(t, models.ScanTypeNetwork, got.Subtype)
	assert.Equal(t, 0, got.Progress)
	assert.Equal(t, []string{"10.0.0.1"}, got.Config.Endpoints)
	assert.Equal(t, []int{22, 443}, got.Config.Ports)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.Result)
}

func TestJob_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetJob(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJob_GetWrongTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))

	_, err := s.GetJob(ctx, job.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJob_UpdateStatusPendingToRunning(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))

	err := s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning)
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, got.Status)
	assert.NotNil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestJob_UpdateStatusRunningToCompleted(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning))

	result := &models.ResultSummary{
		TotalFindings: 2,
		Counts:        models.SeverityCounts{High: 1, Info: 1},
		Targets: []models.TargetResult{{
			Address: "10.0.0.1",
			Status:  models.TargetStatusOK,
			Counts:  models.SeverityCounts{High: 1, Info: 1},
		}},
	}
	err := s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted,
		store.WithResult(result), store.WithProgress(100))
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.DurationSecs)
	assert.GreaterOrEqual(t, *got.DurationSecs, int64(0))
	require.NotNil(t, got.Result)
	assert.Equal(t, 2, got.Result.TotalFindings)
	assert.Equal(t, 1, got.Result.Counts.High)
	require.Len(t, got.Result.Targets, 1)
	assert.Equal(t, "10.0.0.1", got.Result.Targets[0].Address)
}

func TestJob_UpdateStatusRunningToFailed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning))

	err := s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed, store.WithErrorMessage("probe timeout"))
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "probe timeout", *got.ErrorMessage)
}

func TestJob_UpdateStatusPendingToCancelled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))

	err := s.UpdateJobStatus(ctx, job.ID, models.JobStatusCancelled, store.WithErrorMessage("Cancelled by user"))
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, got.Status)
	assert.Nil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
	// No started_at, so the duration is recorded as zero.
	require.NotNil(t, got.DurationSecs)
	assert.Equal(t, int64(0), *got.DurationSecs)
}

func TestJob_UpdateStatusInvalidTransition(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))

	// pending -> completed is invalid
	err := s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestJob_UpdateStatusTerminalIsAbsorbing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted))

	for _, next := range []string{
		models.JobStatusPending, models.JobStatusRunning,
		models.JobStatusFailed, models.JobStatusCancelled,
	} {
		err := s.UpdateJobStatus(ctx, job.ID, next)
		assert.ErrorIs(t, err, store.ErrInvalidTransition, "completed -> %s", next)
	}
}

func TestJob_UpdateStatusNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.UpdateJobStatus(context.Background(), uuid.New(), models.JobStatusRunning)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJob_List(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateJob(ctx, newPendingJob(tenantID)))
	}

	jobs, total, err := s.ListJobs(ctx, store.JobFilter{TenantID: tenantID, Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, jobs, 3)

	jobs, total, err = s.ListJobs(ctx, store.JobFilter{TenantID: tenantID, Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, jobs, 2)
}

func TestJob_ListWithFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	scan := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, scan))

	report := newPendingJob(tenantID)
	report.Kind = models.JobKindReport
	report.Subtype = models.ReportTypeAssets
	require.NoError(t, s.CreateJob(ctx, report))
	require.NoError(t, s.UpdateJobStatus(ctx, report.ID, models.JobStatusRunning))

	jobs, total, err := s.ListJobs(ctx, store.JobFilter{
		TenantID: tenantID, Kind: models.JobKindReport, Page: 1, Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	assert.Equal(t, report.ID, jobs[0].ID)

	jobs, total, err = s.ListJobs(ctx, store.JobFilter{
		TenantID: tenantID, Status: models.JobStatusRunning, Page: 1, Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	assert.Equal(t, report.ID, jobs[0].ID)
}

func TestJob_ListTimeWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	old := newPendingJob(tenantID)
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	old.UpdatedAt = old.CreatedAt
	require.NoError(t, s.CreateJob(ctx, old))

	recent := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, recent))

	jobs, total, err := s.ListJobs(ctx, store.JobFilter{
		TenantID: tenantID, Since: time.Now().UTC().Add(-time.Hour), Page: 1, Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	assert.Equal(t, recent.ID, jobs[0].ID)

	jobs, total, err = s.ListJobs(ctx, store.JobFilter{
		TenantID: tenantID, Until: time.Now().UTC().Add(-24 * time.Hour), Page: 1, Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	assert.Equal(t, old.ID, jobs[0].ID)
}

func TestJob_DeleteTerminal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted))

	require.NoError(t, s.DeleteJob(ctx, job.ID, tenantID))

	_, err := s.GetJob(ctx, job.ID, tenantID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJob_DeleteActiveRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	job := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, job))
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning))

	err := s.DeleteJob(ctx, job.ID, tenantID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	// Still there
	got, err := s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, got.Status)
}

func TestJob_DeleteNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.DeleteJob(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJob_FailOrphaned(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	pending := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, pending))

	running := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, running))
	require.NoError(t, s.UpdateJobStatus(ctx, running.ID, models.JobStatusRunning))

	done := newPendingJob(tenantID)
	require.NoError(t, s.CreateJob(ctx, done))
	require.NoError(t, s.UpdateJobStatus(ctx, done.ID, models.JobStatusRunning))
	require.NoError(t, s.UpdateJobStatus(ctx, done.ID, models.JobStatusCompleted))

	n, err := s.FailOrphanedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []uuid.UUID{pending.ID, running.ID} {
		got, err := s.GetJob(ctx, id, tenantID)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusFailed, got.Status)
		require.NotNil(t, got.ErrorMessage)
		assert.Equal(t, "Interrupted by server restart", *got.ErrorMessage)
		assert.NotNil(t, got.CompletedAt)
	}

	// Terminal jobs are untouched
	got, err := s.GetJob(ctx, done.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
}

// --- Asset Tests ---

func TestAssets_ListByIDs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	id1 := insertAsset(t, pool, tenantID, "web-1", "10.0.0.1")
	insertAsset(t, pool, tenantID, "web-2", "10.0.0.2")
	id3 := insertAsset(t, pool, tenantID, "db-1", "10.0.0.3")

	assets, err := s.ListAssetsByIDs(ctx, tenantID, []uuid.UUID{id1, id3, uuid.New()})
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "web-1", assets[0].Name)
	assert.Equal(t, "db-1", assets[1].Name)
}

func TestAssets_ListByIDsEmpty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	assets, err := s.ListAssetsByIDs(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestAssets_ListAll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	insertAsset(t, pool, tenantID, "web-1", "10.0.0.1")
	insertAsset(t, pool, tenantID, "web-2", "10.0.0.2")

	assets, err := s.ListAssets(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}

// --- Vulnerability Tests ---

func TestVulnerabilities_ListOpenForAsset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	assetID := insertAsset(t, pool, tenantID, "web-1", "10.0.0.1")
	otherID := insertAsset(t, pool, tenantID, "web-2", "10.0.0.2")

	insertVulnerability(t, pool, tenantID, assetID, models.SeverityCritical, "open")
	insertVulnerability(t, pool, tenantID, assetID, models.SeverityLow, "resolved")
	insertVulnerability(t, pool, tenantID, otherID, models.SeverityHigh, "open")

	vulns, err := s.ListOpenVulnerabilitiesForAsset(ctx, tenantID, assetID)
	require.NoError(t, err)
	require.Len(t, vulns, 1)
	assert.Equal(t, models.SeverityCritical, vulns[0].Severity)
	assert.Equal(t, "open", vulns[0].Status)
}

func TestVulnerabilities_CountBySeverity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	assetID := insertAsset(t, pool, tenantID, "web-1", "10.0.0.1")
	insertVulnerability(t, pool, tenantID, assetID, models.SeverityCritical, "open")
	insertVulnerability(t, pool, tenantID, assetID, models.SeverityHigh, "open")
	insertVulnerability(t, pool, tenantID, assetID, models.SeverityHigh, "open")
	insertVulnerability(t, pool, tenantID, assetID, models.SeverityMedium, "resolved")

	counts, err := s.CountVulnerabilitiesBySeverity(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.SeverityCritical])
	assert.Equal(t, 2, counts[models.SeverityHigh])
	assert.Zero(t, counts[models.SeverityMedium])
}

// --- Compliance Control Tests ---

func TestControls_ListEnabled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	_, err := pool.Exec(ctx,
		`INSERT INTO compliance_controls (tenant_id, framework, control_id, title, enabled, passing) VALUES
		 ($1, 'CIS', '1.1', 'Inventory of assets', TRUE, TRUE),
		 ($1, 'CIS', '2.3', 'Address unauthorized software', TRUE, FALSE),
		 ($1, 'PCI', '3.4', 'Render PAN unreadable', FALSE, FALSE)`, tenantID)
	require.NoError(t, err)

	controls, err := s.ListEnabledControls(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, controls, 2)
	assert.Equal(t, "1.1", controls[0].ControlID)
	assert.True(t, controls[0].Passing)
	assert.Equal(t, "2.3", controls[1].ControlID)
	assert.False(t, controls[1].Passing)
}

// --- Ping Test ---

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.Ping(context.Background())
	assert.NoError(t, err)
}
