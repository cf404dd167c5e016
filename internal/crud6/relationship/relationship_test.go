package relationship_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/forbearing/crud6/internal/crud6/relationship"
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/internal/crud6/sprunje"
)

func pageParams() *sprunje.Params { return &sprunje.Params{Page: 0, Size: 10} }

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE post_tags (post_id INTEGER, tag_id INTEGER)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE comments (id INTEGER PRIMARY KEY, post_id INTEGER, body TEXT)`).Error)

	require.NoError(t, db.Table("tags").Create(map[string]any{"id": 1, "name": "go"}).Error)
	require.NoError(t, db.Table("tags").Create(map[string]any{"id": 2, "name": "db"}).Error)
	require.NoError(t, db.Table("post_tags").Create(map[string]any{"post_id": 1, "tag_id": 1}).Error)
	require.NoError(t, db.Table("post_tags").Create(map[string]any{"post_id": 1, "tag_id": 2}).Error)
	require.NoError(t, db.Table("comments").Create(map[string]any{"id": 1, "post_id": 1, "body": "nice"}).Error)
	require.NoError(t, db.Table("comments").Create(map[string]any{"id": 2, "post_id": 2, "body": "other post"}).Error)
	return db
}

func postSchema() *schema.Schema {
	return &schema.Schema{
		Model: "post", Table: "posts", PrimaryKey: "id",
		Relationships: []schema.RelationshipSpec{
			{Name: "tags", Type: schema.RelationshipManyToMany, Model: "tag", PivotTable: "post_tags", ForeignKey: "post_id", RelatedKey: "tag_id"},
		},
		Details: []schema.DetailSpec{
			{Model: "comment", ForeignKey: "post_id"},
		},
	}
}

func tagSchema() *schema.Schema {
	return &schema.Schema{
		Model: "tag", Table: "tags", PrimaryKey: "id",
		Fields: map[string]*schema.FieldSpec{
			"id":   {Type: schema.FieldInteger, Listable: true},
			"name": {Type: schema.FieldString, Listable: true},
		},
	}
}

func commentSchema() *schema.Schema {
	return &schema.Schema{
		Model: "comment", Table: "comments", PrimaryKey: "id",
		Fields: map[string]*schema.FieldSpec{
			"id":      {Type: schema.FieldInteger, Listable: true},
			"post_id": {Type: schema.FieldInteger, Listable: true},
			"body":    {Type: schema.FieldString, Listable: true},
		},
	}
}

func TestResolveFindsRelationshipBeforeDetail(t *testing.T) {
	res, err := relationship.Resolve(postSchema(), "tags")
	require.NoError(t, err)
	require.NotNil(t, res.Relationship)
	require.Equal(t, "tag", res.RelatedModel)
}

func TestResolveFindsDetail(t *testing.T) {
	res, err := relationship.Resolve(postSchema(), "comment")
	require.NoError(t, err)
	require.NotNil(t, res.Detail)
}

func TestResolveUnknownRelationIsNotFound(t *testing.T) {
	_, err := relationship.Resolve(postSchema(), "nope")
	require.Error(t, err)
}

func TestBuildManyToManyJoinsThroughPivot(t *testing.T) {
	db := newTestDB(t)
	res, err := relationship.Resolve(postSchema(), "tags")
	require.NoError(t, err)

	sp, err := relationship.Build(db, tagSchema(), res, 1)
	require.NoError(t, err)

	page, err := sp.Run(context.Background(), pageParams())
	require.NoError(t, err)
	require.EqualValues(t, 2, page.CountFiltered)
}

func TestBuildDetailFiltersByForeignKey(t *testing.T) {
	db := newTestDB(t)
	res, err := relationship.Resolve(postSchema(), "comment")
	require.NoError(t, err)

	sp, err := relationship.Build(db, commentSchema(), res, 1)
	require.NoError(t, err)

	page, err := sp.Run(context.Background(), pageParams())
	require.NoError(t, err)
	require.EqualValues(t, 1, page.CountFiltered)
	require.Equal(t, "nice", page.Rows[0]["body"])
}
