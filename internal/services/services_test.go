// internal/services/services_test.go
package services

import (
	"encoding/json"
	"testing"

	"github.com/Corphon/storyteller/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试一份独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))
	return db
}

// decodeJSON 测试里快速解出泛型载荷
func decodeJSON(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}
