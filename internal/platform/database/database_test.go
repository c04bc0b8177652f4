package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestOpen_SQLiteMemoryAppliesSchema(t *testing.T) {
	db, err := Open(context.Background(), SQLite, ":memory:", quietLogger())
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "consultations"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestOpen_SQLiteFileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatbot.db")

	db, err := Open(context.Background(), SQLite, path, quietLogger())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(context.Background(), SQLite, path, quietLogger())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpen_SQLiteEnforcesKindFields(t *testing.T) {
	db, err := Open(context.Background(), SQLite, ":memory:", quietLogger())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO users (username, email, password_hash, created_at) VALUES ('alice', 'a@x.io', 'h', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	// A symptom consultation must not carry image fields.
	_, err = db.Exec(`INSERT INTO consultations
		(user_id, consultation_type, symptoms, prescription_suggestion, image_path, created_at)
		VALUES (1, 'SYMPTOM', 'cough', 'rest', 'uploads/x.png', CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("mysql"), "dsn", quietLogger())
	assert.EqualError(t, err, `unsupported database driver "mysql"`)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_time_format=sqlite", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x.db?cache=shared&_time_format=sqlite", sqliteDSN("file:x.db?cache=shared"))
}
