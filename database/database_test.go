package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/internal/crud6/schema"
)

func newTestDB(t *testing.T) *gorm.DB {
	// A name unique per test keeps each test's shared-cache memory database
	// isolated from the others, since the pool behind *gorm.DB is never
	// explicitly closed between tests.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE widgets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		email TEXT,
		updated_at DATETIME,
		deleted_at DATETIME
	)`).Error)
	return db
}

func widgetSchema() *schema.Schema {
	return &schema.Schema{
		Model:      "widget",
		Table:      "widgets",
		PrimaryKey: "id",
		Fields: map[string]*schema.FieldSpec{
			"id":    {Type: schema.FieldInteger, AutoIncrement: true},
			"name":  {Type: schema.FieldString},
			"email": {Type: schema.FieldString},
		},
	}
}

func TestConnectionResolvesDefaultWhenNameEmpty(t *testing.T) {
	db := newTestDB(t)
	orig := database.Default
	defer func() { database.Default = orig }()
	database.Default = db

	conn, err := database.Connection("")
	require.NoError(t, err)
	require.Same(t, db, conn)
}

func TestConnectionResolvesRegisteredNamedConnection(t *testing.T) {
	db := newTestDB(t)
	database.Register("reports", db)

	conn, err := database.Connection("reports")
	require.NoError(t, err)
	require.Same(t, db, conn)
}

func TestConnectionRejectsUnknownName(t *testing.T) {
	_, err := database.Connection("does-not-exist")
	require.Error(t, err)
}

func TestFindReturnsNotFoundForMissingRow(t *testing.T) {
	db := newTestDB(t)
	_, err := database.Find(context.Background(), db, widgetSchema(), 999)
	require.Error(t, err)
}

func TestInsertPopulatesAutoIncrementPrimaryKey(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	h := database.New(db, s)
	require.NoError(t, h.SetAll(map[string]any{"name": "Acme Bolt", "email": "a@b.com"}))
	require.NoError(t, h.Insert(context.Background()))

	id := h.PKValue()
	require.NotNil(t, id)
	require.NotEqual(t, 0, id)
}

func TestFindLoadsInsertedRow(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	h := database.New(db, s)
	require.NoError(t, h.SetAll(map[string]any{"name": "Acme Bolt", "email": "a@b.com"}))
	require.NoError(t, h.Insert(context.Background()))

	found, err := database.Find(context.Background(), db, s, h.PKValue())
	require.NoError(t, err)
	require.Equal(t, "Acme Bolt", found.Values()["name"])
}

func TestUpdatePersistsOnlyNamedFields(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	h := database.New(db, s)
	require.NoError(t, h.SetAll(map[string]any{"name": "Acme Bolt", "email": "a@b.com"}))
	require.NoError(t, h.Insert(context.Background()))

	h2, err := database.Find(context.Background(), db, s, h.PKValue())
	require.NoError(t, err)
	require.NoError(t, h2.Set("name", "Acme Nut"))
	require.NoError(t, h2.Set("email", "ignored-because-not-in-fields-list"))
	require.NoError(t, h2.Update(context.Background(), []string{"name"}))

	reloaded, err := database.Find(context.Background(), db, s, h.PKValue())
	require.NoError(t, err)
	require.Equal(t, "Acme Nut", reloaded.Values()["name"])
	require.Equal(t, "a@b.com", reloaded.Values()["email"])
}

func TestDeleteHardRemovesRow(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	h := database.New(db, s)
	require.NoError(t, h.SetAll(map[string]any{"name": "Acme Bolt"}))
	require.NoError(t, h.Insert(context.Background()))

	require.NoError(t, h.Delete(context.Background()))

	_, err := database.Find(context.Background(), db, s, h.PKValue())
	require.Error(t, err)
}

func TestSoftDeleteSetsTombstoneWithoutRemovingRow(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	s.SoftDelete = true
	h := database.New(db, s)
	require.NoError(t, h.SetAll(map[string]any{"name": "Acme Bolt"}))
	require.NoError(t, h.Insert(context.Background()))
	id := h.PKValue()

	now := time.Now()
	require.NoError(t, h.SoftDelete(context.Background(), now))

	// Find filters out soft-deleted rows when the schema declares soft_delete.
	_, err := database.Find(context.Background(), db, s, id)
	require.Error(t, err)

	// The row itself is still physically present, only tombstoned.
	var count int64
	require.NoError(t, db.Table("widgets").Where("id = ?", id).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUniqueExcludesCurrentRecord(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	h := database.New(db, s)
	require.NoError(t, h.SetAll(map[string]any{"name": "Acme Bolt", "email": "dup@example.com"}))
	require.NoError(t, h.Insert(context.Background()))

	ok, err := database.Unique(context.Background(), db, s, "email", "dup@example.com", nil)
	require.NoError(t, err)
	require.False(t, ok, "email is already taken by another row")

	ok, err = database.Unique(context.Background(), db, s, "email", "dup@example.com", h.PKValue())
	require.NoError(t, err)
	require.True(t, ok, "excluding the row's own primary key, the value is unique")

	ok, err = database.Unique(context.Background(), db, s, "email", "fresh@example.com", nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	orig := database.Default
	defer func() { database.Default = orig }()
	database.Default = db
	s := widgetSchema()

	err := database.Transaction(context.Background(), s, func(tx *gorm.DB) error {
		h := database.New(tx, s)
		require.NoError(t, h.SetAll(map[string]any{"name": "Acme Bolt"}))
		require.NoError(t, h.Insert(context.Background()))
		return context.DeadlineExceeded
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Table("widgets").Count(&count).Error)
	require.EqualValues(t, 0, count, "the insert inside the failed transaction must not be visible")
}
