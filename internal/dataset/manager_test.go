package dataset

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gtxykn0504/penguin-query/internal/entity"
	"github.com/gtxykn0504/penguin-query/internal/upload"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Dataset{}, &entity.QueryLink{}))
	return db
}

func testSheet() *upload.Sheet {
	return &upload.Sheet{
		Columns: []string{"name", "score"},
		Rows: []map[string]string{
			{"name": "Alice", "score": "90"},
			{"name": "Bob", "score": "70"},
		},
	}
}

func countUserTables(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	err := db.Raw(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name LIKE 'dataset\_%' ESCAPE '\'`).Scan(&count).Error
	require.NoError(t, err)
	return count
}

func TestCreateFromRowsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)
	owner := uuid.New()

	ds, err := m.CreateFromRows(owner, "scores", testSheet())
	require.NoError(t, err)

	assert.Equal(t, int64(2), ds.TotalRows)
	assert.Equal(t, owner, ds.CreatedBy)

	columns, err := m.ListColumns(ds)
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "name", columns[0].Name)
	assert.Equal(t, "score", columns[1].Name)

	rows, err := m.ListRows(ds)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0]["name"])
	assert.Equal(t, "90", rows[0]["score"])
	assert.Equal(t, "Bob", rows[1]["name"])
	assert.Contains(t, rows[0], "id")
	assert.Contains(t, rows[0], "created_at")
}

func TestCreateFromRowsMissingCellIsNull(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)

	sheet := &upload.Sheet{
		Columns: []string{"name", "city"},
		Rows: []map[string]string{
			{"name": "Alice"},
		},
	}

	ds, err := m.CreateFromRows(uuid.New(), "cities", sheet)
	require.NoError(t, err)

	rows, err := m.ListRows(ds)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["city"])
}

func TestCreateFromRowsInvalidColumnAborts(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)

	sheet := &upload.Sheet{
		Columns: []string{"name", "price($)"},
		Rows: []map[string]string{
			{"name": "Alice", "price($)": "10"},
		},
	}

	_, err := m.CreateFromRows(uuid.New(), "broken", sheet)

	var colErr *InvalidColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "price($)", colErr.Column)

	var datasets int64
	require.NoError(t, db.Model(&entity.Dataset{}).Count(&datasets).Error)
	assert.Zero(t, datasets, "no metadata row may survive a rejected upload")
	assert.Zero(t, countUserTables(t, db), "no table may survive a rejected upload")
}

func TestCreateFromRowsDuplicateColumnAborts(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)

	sheet := &upload.Sheet{
		Columns: []string{"name", "name"},
		Rows:    []map[string]string{{"name": "Alice"}},
	}

	_, err := m.CreateFromRows(uuid.New(), "dup", sheet)

	var dupErr *DuplicateColumnError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "name", dupErr.Column)
	assert.Zero(t, countUserTables(t, db))
}

func TestCreateFromRowsEmptySheet(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)

	_, err := m.CreateFromRows(uuid.New(), "empty", &upload.Sheet{Columns: []string{"name"}})
	assert.ErrorIs(t, err, ErrEmptySheet)
	assert.Zero(t, countUserTables(t, db))
}

func TestUpdateCell(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)

	ds, err := m.CreateFromRows(uuid.New(), "scores", testSheet())
	require.NoError(t, err)

	require.NoError(t, m.UpdateCell(ds, 1, "score", "95"))

	rows, err := m.ListRows(ds)
	require.NoError(t, err)
	assert.Equal(t, "95", rows[0]["score"])
	assert.Equal(t, "70", rows[1]["score"], "other rows untouched")
}

func TestUpdateCellRejectsUnknownColumn(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)

	ds, err := m.CreateFromRows(uuid.New(), "scores", testSheet())
	require.NoError(t, err)

	var colErr *InvalidColumnError
	assert.ErrorAs(t, m.UpdateCell(ds, 1, "city", "Berlin"), &colErr)
	assert.ErrorAs(t, m.UpdateCell(ds, 1, "price($)", "10"), &colErr)

	// System columns are never editable.
	assert.Error(t, m.UpdateCell(ds, 1, "id", "7"))
}

func TestUpdateCellUnknownRow(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)

	ds, err := m.CreateFromRows(uuid.New(), "scores", testSheet())
	require.NoError(t, err)

	assert.ErrorIs(t, m.UpdateCell(ds, 999, "score", "1"), ErrRowNotFound)
}

func TestDropCascades(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)
	owner := uuid.New()

	ds, err := m.CreateFromRows(owner, "scores", testSheet())
	require.NoError(t, err)

	link := &entity.QueryLink{ID: uuid.New(), DatasetID: ds.ID, Slug: "scores-public", CreatedBy: owner}
	require.NoError(t, db.Create(link).Error)

	require.NoError(t, m.Drop(ds))

	var datasets, links int64
	require.NoError(t, db.Unscoped().Model(&entity.Dataset{}).Count(&datasets).Error)
	require.NoError(t, db.Unscoped().Model(&entity.QueryLink{}).Count(&links).Error)
	assert.Zero(t, datasets)
	assert.Zero(t, links)
	assert.Zero(t, countUserTables(t, db))
}

func TestDropRejectsForeignTableName(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)

	ds := &entity.Dataset{ID: uuid.New(), Name: "bad", TableName: "users"}
	assert.Error(t, m.Drop(ds))
}

func TestRename(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)
	owner := uuid.New()

	ds, err := m.CreateFromRows(owner, "scores", testSheet())
	require.NoError(t, err)

	require.NoError(t, m.Rename(ds.ID, owner, "grades"))

	got, err := m.GetForOwner(ds.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "grades", got.Name)
	assert.Equal(t, ds.TableName, got.TableName, "table name never changes")

	assert.ErrorIs(t, m.Rename(ds.ID, uuid.New(), "hijack"), ErrNotFound)
}

func TestGetForOwnerEnforcesOwnership(t *testing.T) {
	db := openTestDB(t)
	m := NewManager(db)
	owner := uuid.New()

	ds, err := m.CreateFromRows(owner, "scores", testSheet())
	require.NoError(t, err)

	_, err = m.GetForOwner(ds.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := m.GetForOwner(ds.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, ds.ID, got.ID)
}
