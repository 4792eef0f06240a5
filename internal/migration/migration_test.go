package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestPartialUniqueIndexOnAcceptedOffers(t *testing.T) {
	raw, err := fs.ReadFile(embeddedMigrations, migrationsDir+"/000003_projects_offers.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ON offers (project_id) WHERE status = 'ACCEPTED'")
}

func TestApplyAutoMigratesSQLite(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, Apply(conn, zaptest.NewLogger(t)))
	for _, table := range []string{
		"identities", "auth_sessions", "invitations", "users", "project_categories",
		"projects", "offers", "financials", "financial_updates", "audit_logs",
	} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}
