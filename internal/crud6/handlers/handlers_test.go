package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/internal/crud6/handlers"
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

func init() { gin.SetMode(gin.TestMode) }

// fakeAuthorizer always returns a fixed verdict, recording whether it was
// ever consulted so a test can assert a handler short-circuits before it.
type fakeAuthorizer struct {
	allow   bool
	checked bool
}

func (f *fakeAuthorizer) CheckAccess(ctx context.Context, principal *types.Principal, permission string) (bool, error) {
	f.checked = true
	return f.allow, nil
}

// fakeAuditSink records every entry handed to it; nothing in these tests
// asserts on its content, it only needs to satisfy types.AuditSink.
type fakeAuditSink struct{ entries []types.AuditEntry }

func (f *fakeAuditSink) Record(ctx context.Context, e types.AuditEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

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
		secret TEXT,
		updated_at DATETIME,
		deleted_at DATETIME
	)`).Error)
	orig := database.Default
	t.Cleanup(func() { database.Default = orig })
	database.Default = db
	return db
}

func widgetSchema() *schema.Schema {
	return &schema.Schema{
		Model:      "widget",
		Table:      "widgets",
		PrimaryKey: "id",
		Fields: map[string]*schema.FieldSpec{
			"id":     {Type: schema.FieldInteger, AutoIncrement: true},
			"name":   {Type: schema.FieldString, Required: true},
			"secret": {Type: schema.FieldString, Readonly: true},
		},
	}
}

// newRequestContext builds a gin.Context carrying s (and h, if non-nil) the
// way middleware.ResolveModel would have attached them, with body as the
// JSON request payload.
func newRequestContext(t *testing.T, method string, body map[string]any, s *schema.Schema, h *database.Handle) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/crud6/widget", reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	c.Set(consts.CTX_SCHEMA, s)
	if h != nil {
		c.Set(consts.CTX_HANDLE, h)
	}
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateDeniesBeforeAnyDatabaseWrite(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	auth := &fakeAuthorizer{allow: false}
	d := &handlers.Deps{Auth: auth, Audit: &fakeAuditSink{}, Clock: fixedClock{at: time.Now()}, DefaultPageSize: 10, MaxPageSize: 100}

	c, w := newRequestContext(t, http.MethodPost, map[string]any{"name": "Widget"}, s, nil)
	handlers.Create(d)(c)

	require.True(t, auth.checked, "the authorizer must have been consulted")
	require.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, db.Table("widgets").Count(&count).Error)
	require.EqualValues(t, 0, count, "a denied Create must never reach the database")
}

func TestUpdateDeniesBeforeAnyDatabaseWrite(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	require.NoError(t, db.Table("widgets").Create(map[string]any{"name": "Original"}).Error)
	h, err := database.Find(context.Background(), db, s, 1)
	require.NoError(t, err)

	auth := &fakeAuthorizer{allow: false}
	d := &handlers.Deps{Auth: auth, Audit: &fakeAuditSink{}, Clock: fixedClock{at: time.Now()}, DefaultPageSize: 10, MaxPageSize: 100}

	c, w := newRequestContext(t, http.MethodPut, map[string]any{"name": "Changed"}, s, h)
	handlers.Update(d)(c)

	require.True(t, auth.checked)
	require.Equal(t, http.StatusForbidden, w.Code)

	reloaded, err := database.Find(context.Background(), db, s, 1)
	require.NoError(t, err)
	require.Equal(t, "Original", reloaded.Values()["name"], "a denied Update must never reach the database")
}

func TestDeleteDeniesBeforeAnyDatabaseWrite(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	require.NoError(t, db.Table("widgets").Create(map[string]any{"name": "Keep Me"}).Error)
	h, err := database.Find(context.Background(), db, s, 1)
	require.NoError(t, err)

	auth := &fakeAuthorizer{allow: false}
	d := &handlers.Deps{Auth: auth, Audit: &fakeAuditSink{}, Clock: fixedClock{at: time.Now()}, DefaultPageSize: 10, MaxPageSize: 100}

	c, w := newRequestContext(t, http.MethodDelete, nil, s, h)
	handlers.Delete(d)(c)

	require.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, db.Table("widgets").Where("id = ?", 1).Count(&count).Error)
	require.EqualValues(t, 1, count, "a denied Delete must leave the row untouched")
}

func TestCreateStripsReadonlyAndAutoIncrementFieldsFromClientInput(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	d := &handlers.Deps{
		Auth:            &fakeAuthorizer{allow: true},
		Audit:           &fakeAuditSink{},
		Clock:           fixedClock{at: time.Now()},
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}

	c, w := newRequestContext(t, http.MethodPost, map[string]any{
		"id":     999,
		"name":   "Widget",
		"secret": "client-injected",
	}, s, nil)
	handlers.Create(d)(c)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)

	require.NotEqual(t, float64(999), data["id"], "auto_increment id must never come from client input")
	require.NotEqual(t, "client-injected", data["secret"], "readonly fields must never come from client input")

	var row map[string]any
	require.NoError(t, db.Table("widgets").Take(&row).Error)
	require.NotEqual(t, "client-injected", row["secret"])
}

func TestPatchFieldRejectsReadonlyFieldBeforePermissionCheck(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	require.NoError(t, db.Table("widgets").Create(map[string]any{"name": "Widget", "secret": "original"}).Error)
	h, err := database.Find(context.Background(), db, s, 1)
	require.NoError(t, err)

	auth := &fakeAuthorizer{allow: true}
	d := &handlers.Deps{Auth: auth, Audit: &fakeAuditSink{}, Clock: fixedClock{at: time.Now()}, DefaultPageSize: 10, MaxPageSize: 100}

	c, w := newRequestContext(t, http.MethodPut, map[string]any{"value": "attacker-value"}, s, h)
	c.Params = gin.Params{{Key: "field", Value: "secret"}}
	handlers.PatchField(d)(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, auth.checked, "a readonly field must be rejected before the authorizer is ever consulted")

	reloaded, err := database.Find(context.Background(), db, s, 1)
	require.NoError(t, err)
	require.Equal(t, "original", reloaded.Values()["secret"])
}

func TestDeleteSoftDeletesWithoutRemovingTheRow(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	s.SoftDelete = true
	require.NoError(t, db.Table("widgets").Create(map[string]any{"name": "Widget"}).Error)
	h, err := database.Find(context.Background(), db, s, 1)
	require.NoError(t, err)

	d := &handlers.Deps{Auth: &fakeAuthorizer{allow: true}, Audit: &fakeAuditSink{}, Clock: fixedClock{at: time.Now()}, DefaultPageSize: 10, MaxPageSize: 100}

	c, w := newRequestContext(t, http.MethodDelete, nil, s, h)
	handlers.Delete(d)(c)
	require.Equal(t, http.StatusOK, w.Code)

	// Find must no longer surface the row once soft_delete is in effect...
	_, err = database.Find(context.Background(), db, s, 1)
	require.Error(t, err)

	// ...but the row is still physically present, only tombstoned.
	var count int64
	require.NoError(t, db.Table("widgets").Where("id = ?", 1).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestReadBreadcrumbUsesTitleFieldWhenPresent(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	s.TitleField = "name"
	require.NoError(t, db.Table("widgets").Create(map[string]any{"name": "Acme Bolt"}).Error)
	h, err := database.Find(context.Background(), db, s, 1)
	require.NoError(t, err)

	d := &handlers.Deps{Auth: &fakeAuthorizer{allow: true}, Audit: &fakeAuditSink{}, Clock: fixedClock{at: time.Now()}, DefaultPageSize: 10, MaxPageSize: 100}

	c, w := newRequestContext(t, http.MethodGet, nil, s, h)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	handlers.Read(d)(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "Acme Bolt (1)", body["breadcrumb"])
}

func TestCreateThenReadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	s := widgetSchema()
	d := &handlers.Deps{Auth: &fakeAuthorizer{allow: true}, Audit: &fakeAuditSink{}, Clock: fixedClock{at: time.Now()}, DefaultPageSize: 10, MaxPageSize: 100}

	c, w := newRequestContext(t, http.MethodPost, map[string]any{"name": "Acme Bolt"}, s, nil)
	handlers.Create(d)(c)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	data := created["data"].(map[string]any)
	id := data["id"]

	h, err := database.Find(context.Background(), db, s, id)
	require.NoError(t, err)

	c2, w2 := newRequestContext(t, http.MethodGet, nil, s, h)
	c2.Params = gin.Params{{Key: "id", Value: "1"}}
	handlers.Read(d)(c2)

	require.Equal(t, http.StatusOK, w2.Code)
	read := decodeBody(t, w2)
	readData := read["data"].(map[string]any)
	require.Equal(t, "Acme Bolt", readData["name"])
}
