package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"sharekindness/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           50,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestResolveSchemaPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    SchemaPolicy
		wantErr bool
	}{
		{
			name: "hybrid in development runs both",
			cfg:  config.Config{Env: "development", DBSchemaMode: "hybrid"},
			want: SchemaPolicy{Mode: SchemaModeHybrid, RunSQL: true, RunAutoMigrate: true},
		},
		{
			name: "empty mode defaults to hybrid",
			cfg:  config.Config{Env: "test"},
			want: SchemaPolicy{Mode: SchemaModeHybrid, RunSQL: true, RunAutoMigrate: true},
		},
		{
			name: "hybrid in production is sql only",
			cfg:  config.Config{Env: "production", DBSchemaMode: "hybrid"},
			want: SchemaPolicy{Mode: SchemaModeHybrid, RunSQL: true},
		},
		{
			name: "sql mode",
			cfg:  config.Config{Env: "development", DBSchemaMode: "SQL"},
			want: SchemaPolicy{Mode: SchemaModeSQL, RunSQL: true},
		},
		{
			name:    "auto in staging without opt-in",
			cfg:     config.Config{Env: "staging", DBSchemaMode: "auto"},
			wantErr: true,
		},
		{
			name: "auto in staging with opt-in",
			cfg:  config.Config{Env: "staging", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true},
			want: SchemaPolicy{Mode: SchemaModeAuto, RunAutoMigrate: true},
		},
		{
			name:    "unknown mode",
			cfg:     config.Config{Env: "development", DBSchemaMode: "yolo"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSchemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "init", all[0].Name)
	assert.Contains(t, all[0].UpScript, "idx_requests_user_donation")
	assert.Contains(t, all[0].UpScript, "chk_donations_quantity")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS requests")

	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Version, all[i].Version)
	}
	assert.Equal(t, "000001_init", GetMigrationByVersion(1).String())
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestLoadMigrations_RejectsMissingDown(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000001_init.up.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := LoadMigrations(fsys)
	assert.Error(t, err)
}

func TestLoadMigrations_RejectsDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/000001_a.down.sql": {Data: []byte("SELECT 1;")},
		"migrations/1_b.up.sql":        {Data: []byte("SELECT 1;")},
		"migrations/1_b.down.sql":      {Data: []byte("SELECT 1;")},
	}
	_, err := LoadMigrations(fsys)
	assert.Error(t, err)
}

type fakeMigrationStore struct {
	applied []int
	ran     []int
	failOn  int
}

func (f *fakeMigrationStore) GetAppliedMigrations(context.Context) ([]int, error) {
	return f.applied, nil
}

func (f *fakeMigrationStore) ApplyMigration(_ context.Context, version int, _, _ string) error {
	if version == f.failOn {
		return errors.New("boom")
	}
	f.ran = append(f.ran, version)
	return nil
}

func (f *fakeMigrationStore) RemoveMigration(context.Context, int, string) error { return nil }

func TestRunPending(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "init"}, {Version: 2, Name: "idx"}, {Version: 3, Name: "more"}}

	t.Run("applies only missing versions", func(t *testing.T) {
		store := &fakeMigrationStore{applied: []int{1}}
		require.NoError(t, runPending(context.Background(), store, registered))
		assert.Equal(t, []int{2, 3}, store.ran)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		store := &fakeMigrationStore{failOn: 2}
		assert.Error(t, runPending(context.Background(), store, registered))
		assert.Equal(t, []int{1}, store.ran)
	})

	t.Run("unknown applied version", func(t *testing.T) {
		store := &fakeMigrationStore{applied: []int{1, 42}}
		err := runPending(context.Background(), store, registered)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "000042")
	})
}

func TestAutoMigrate_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "donations", "requests"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("requests", "idx_requests_user_donation"))
}

func TestConnectRead_NoReplicaConfigured(t *testing.T) {
	db, err := ConnectRead(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.Nil(t, GetReadDB())
}
