package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenInMemoryAppliesMigrations(t *testing.T) {
	t.Parallel()
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"holding_edits", "daily_prices"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		require.Equal(t, table, name)
	}

	// A second run is a no-op.
	require.NoError(t, Migrate(db))
}

func TestOpenInMemoryDatabasesAreIsolated(t *testing.T) {
	t.Parallel()
	a, err := OpenInMemory()
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Exec(`INSERT INTO daily_prices (ticker_symbol, date, price) VALUES ('VFV.TO', '2024-01-02', '100')`)
	require.NoError(t, err)

	var n int
	require.NoError(t, b.QueryRow(`SELECT COUNT(*) FROM daily_prices`).Scan(&n))
	require.Zero(t, n)
}
