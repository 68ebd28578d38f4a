package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func readInitMigration(t *testing.T) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_storefront.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestInitMigrationCreatesEveryTable(t *testing.T) {
	content := readInitMigration(t)

	for _, table := range []string{
		"users", "categories", "subcategories", "products", "carts", "orders",
		"ratings", "reviews", "addresses", "notifications", "search_logs",
	} {
		if !strings.Contains(content, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("missing table %s", table)
		}
		if !strings.Contains(content, "DROP TABLE IF EXISTS "+table+";") {
			t.Errorf("missing down statement for %s", table)
		}
	}
}

// The services map these constraint names onto typed errors.
func TestInitMigrationNamesUniqueConstraints(t *testing.T) {
	content := readInitMigration(t)

	for _, constraint := range []string{
		"CONSTRAINT users_email_key UNIQUE (email)",
		"CONSTRAINT categories_slug_key UNIQUE (slug)",
		"CONSTRAINT subcategories_slug_key UNIQUE (slug)",
		"CONSTRAINT products_slug_key UNIQUE (slug)",
		"CONSTRAINT carts_user_id_key UNIQUE (user_id)",
		"CHECK (status IN ('pending', 'processing', 'shipped', 'delivered', 'cancelled'))",
		"CHECK (rating BETWEEN 1 AND 5)",
	} {
		if !strings.Contains(content, constraint) {
			t.Errorf("missing %q", constraint)
		}
	}
}

func createTableBlock(t *testing.T, content, table string) string {
	t.Helper()
	start := strings.Index(content, "CREATE TABLE IF NOT EXISTS "+table+" (")
	require.GreaterOrEqual(t, start, 0, "table %s", table)
	end := strings.Index(content[start:], "\n);")
	require.Greater(t, end, 0, "table %s", table)
	return content[start : start+end]
}

// Account deletion must leave these rows in place.
func TestInitMigrationKeepsUserRowsOnAccountDeletion(t *testing.T) {
	content := readInitMigration(t)

	for _, table := range []string{"carts", "orders", "ratings", "reviews"} {
		block := createTableBlock(t, content, table)
		if strings.Contains(block, "REFERENCES users") {
			t.Errorf("%s references users", table)
		}
	}
	if strings.Contains(createTableBlock(t, content, "ratings"), "UNIQUE") {
		t.Error("ratings must accept repeated (user, product) rows")
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestOutboxMigrationMatchesEventTypes(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_outbox_events.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	require.Contains(t, content, "CREATE TABLE IF NOT EXISTS outbox_events (")
	require.Contains(t, content, "DROP TABLE IF EXISTS outbox_events;")
	for _, eventType := range []enums.OutboxEventType{
		enums.EventOrderPlaced,
		enums.EventOrderStatusChanged,
		enums.EventOrderCancelled,
	} {
		require.Contains(t, content, "'"+string(eventType)+"'")
	}
}
