package database_test

import (
	"bytes"
	"testing"

	"csvinsight/internal/config"
	"csvinsight/internal/database"
	"csvinsight/internal/models"
	"csvinsight/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMigratesUsers(t *testing.T) {
	db, err := database.Open(config.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasColumn("users", "password_hash"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := database.Open("mysql", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_LogsThroughProcessLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.Reset()
	logger.Init(logger.Options{Level: "debug", Output: &buf})
	t.Cleanup(logger.Reset)

	db, err := database.Open(config.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	var user models.User
	err = db.First(&user, "email = ?", "ghost@example.com").Error
	require.Error(t, err)
	assert.NotContains(t, buf.String(), "record not found")

	err = db.Table("missing_table").Count(new(int64)).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"component":"gorm"`)
	assert.Contains(t, buf.String(), "missing_table")
}
