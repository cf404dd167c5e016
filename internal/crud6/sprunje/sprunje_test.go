package sprunje_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/internal/crud6/sprunje"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE widgets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		category TEXT,
		price REAL,
		active BOOLEAN,
		deleted_at DATETIME
	)`).Error)
	rows := []map[string]any{
		{"name": "Acme Bolt", "category": "hardware", "price": 1.5, "active": true},
		{"name": "Acme Nut", "category": "hardware", "price": 0.5, "active": true},
		{"name": "Widget Pro", "category": "software", "price": 99.0, "active": false},
	}
	for _, r := range rows {
		require.NoError(t, db.Table("widgets").Create(r).Error)
	}
	return db
}

func widgetSchema() *schema.Schema {
	return &schema.Schema{
		Model:      "widget",
		Table:      "widgets",
		PrimaryKey: "id",
		SoftDelete: true,
		Fields: map[string]*schema.FieldSpec{
			"id":       {Type: schema.FieldInteger, Listable: true, Sortable: true},
			"name":     {Type: schema.FieldString, Listable: true, Sortable: true, Filterable: true, Searchable: true},
			"category": {Type: schema.FieldString, Listable: true, Filterable: true},
			"price":    {Type: schema.FieldFloat, Listable: true, Sortable: true, Filterable: true},
			"active":   {Type: schema.FieldBoolean, Listable: true, Filterable: true},
		},
	}
}

func TestSprunjeRunListsAllWithDefaults(t *testing.T) {
	db := newTestDB(t)
	params, err := sprunje.ParseParams("", 10, 100)
	require.NoError(t, err)

	page, err := sprunje.New(db, widgetSchema()).Run(context.Background(), params)
	require.NoError(t, err)
	require.EqualValues(t, 3, page.Count)
	require.EqualValues(t, 3, page.CountFiltered)
	require.Len(t, page.Rows, 3)
}

func TestSprunjeRunFiltersByCategory(t *testing.T) {
	db := newTestDB(t)
	params, err := sprunje.ParseParams("filters[category]=hardware", 10, 100)
	require.NoError(t, err)

	page, err := sprunje.New(db, widgetSchema()).Run(context.Background(), params)
	require.NoError(t, err)
	require.EqualValues(t, 3, page.Count)
	require.EqualValues(t, 2, page.CountFiltered)
	require.Len(t, page.Rows, 2)
}

func TestSprunjeRunSearchIsCaseInsensitiveSubstring(t *testing.T) {
	db := newTestDB(t)
	params, err := sprunje.ParseParams("search=acme", 10, 100)
	require.NoError(t, err)

	page, err := sprunje.New(db, widgetSchema()).Run(context.Background(), params)
	require.NoError(t, err)
	require.EqualValues(t, 2, page.CountFiltered)
}

func TestSprunjeRunSortsDescendingAndPaginates(t *testing.T) {
	db := newTestDB(t)
	params, err := sprunje.ParseParams("sorts[price]=desc&size=1&page=0", 10, 100)
	require.NoError(t, err)

	page, err := sprunje.New(db, widgetSchema()).Run(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	require.Equal(t, "Widget Pro", page.Rows[0]["name"])
}

func TestSprunjeRunIgnoresUnsortableField(t *testing.T) {
	db := newTestDB(t)
	params, err := sprunje.ParseParams("sorts[category]=asc", 10, 100)
	require.NoError(t, err)

	_, err = sprunje.New(db, widgetSchema()).Run(context.Background(), params)
	require.NoError(t, err)
}

func TestSprunjeRunSizeCapsAtMax(t *testing.T) {
	params, err := sprunje.ParseParams("size=1000", 10, 100)
	require.NoError(t, err)
	require.Equal(t, 100, params.Size)
}

func TestSprunjeRunDefaultSortApplied(t *testing.T) {
	db := newTestDB(t)
	params, err := sprunje.ParseParams("", 10, 100)
	require.NoError(t, err)

	s := widgetSchema()
	s.DefaultSort = map[string]string{"price": "asc"}
	page, err := sprunje.New(db, s).Run(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, "Acme Nut", page.Rows[0]["name"])
}
