package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gtxykn0504/penguin-query/internal/entity"
	"github.com/gtxykn0504/penguin-query/internal/upload"
	"github.com/gtxykn0504/penguin-query/internal/utils"
)

var (
	// ErrNotFound is returned when a dataset does not exist or is not owned by
	// the caller.
	ErrNotFound = errors.New("dataset not found")

	// ErrEmptySheet is returned for uploads with no data rows. Nothing is
	// created in that case.
	ErrEmptySheet = errors.New("uploaded sheet is empty")

	// ErrRowNotFound is returned by UpdateCell when the target row id does not
	// exist in the backing table.
	ErrRowNotFound = errors.New("row not found")
)

// InvalidColumnError names the first column header that failed sanitization.
type InvalidColumnError struct {
	Column string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("invalid column name: %s", e.Column)
}

// DuplicateColumnError names a column header that appears more than once
// after normalization.
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column name: %s", e.Column)
}

// Column is one live column of a dataset's backing table, in physical
// definition order.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Manager owns the lifecycle of per-dataset tables: creation from an uploaded
// sheet, row access, single-cell edits and teardown. Every runtime-derived
// identifier it interpolates into SQL goes through the sanitizer first.
type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// CreateFromRows materializes an uploaded sheet into a dedicated table and
// registers the dataset metadata, all inside one transaction. Any failure,
// including a column header that fails sanitization, leaves no trace.
func (m *Manager) CreateFromRows(ownerID uuid.UUID, name string, sheet *upload.Sheet) (*entity.Dataset, error) {
	if sheet == nil || len(sheet.Rows) == 0 {
		return nil, ErrEmptySheet
	}

	normalized := make([]string, len(sheet.Columns))
	seen := make(map[string]struct{}, len(sheet.Columns))
	for i, raw := range sheet.Columns {
		col, err := utils.NormalizeColumnName(raw)
		if err != nil {
			return nil, &InvalidColumnError{Column: raw}
		}
		if _, dup := seen[col]; dup {
			return nil, &DuplicateColumnError{Column: col}
		}
		seen[col] = struct{}{}
		normalized[i] = col
	}

	datasetID := uuid.New()
	tableName := utils.DeriveTableName(datasetID)

	ds := &entity.Dataset{
		ID:        datasetID,
		Name:      name,
		TableName: tableName,
		TotalRows: int64(len(sheet.Rows)),
		CreatedBy: ownerID,
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.createTableSQL(tableName, normalized)).Error; err != nil {
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}

		insertSQL := insertRowSQL(tableName, normalized)
		for _, row := range sheet.Rows {
			values := make([]interface{}, len(sheet.Columns))
			for i, raw := range sheet.Columns {
				if v, ok := row[raw]; ok {
					values[i] = v
				}
			}
			if err := tx.Exec(insertSQL, values...).Error; err != nil {
				return fmt.Errorf("failed to insert row: %w", err)
			}
		}

		if err := tx.Create(ds).Error; err != nil {
			return fmt.Errorf("failed to store dataset metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

// ListColumns introspects the live backing table, excluding the two system
// columns, in physical definition order. Columns are introspected rather than
// cached so the rest of the system always sees the table as it is now.
func (m *Manager) ListColumns(ds *entity.Dataset) ([]Column, error) {
	type row struct {
		Name string
		Type string
	}
	var rows []row

	var err error
	switch m.db.Dialector.Name() {
	case "sqlite":
		err = m.db.Raw(
			`SELECT name, type FROM pragma_table_info(?) ORDER BY cid`,
			ds.TableName,
		).Scan(&rows).Error
	default:
		err = m.db.Raw(
			`SELECT column_name AS name, data_type AS type
			 FROM information_schema.columns
			 WHERE table_schema = current_schema() AND table_name = ?
			 ORDER BY ordinal_position`,
			ds.TableName,
		).Scan(&rows).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to introspect table %s: %w", ds.TableName, err)
	}

	columns := make([]Column, 0, len(rows))
	for _, r := range rows {
		if isSystemColumn(r.Name) {
			continue
		}
		columns = append(columns, Column{Name: r.Name, Type: r.Type})
	}
	return columns, nil
}

// ListRows returns every row of the backing table, including the system
// columns, ordered by row identity.
func (m *Manager) ListRows(ds *entity.Dataset) ([]map[string]interface{}, error) {
	if !utils.IsValidTableName(ds.TableName) {
		return nil, fmt.Errorf("table name %q does not match the generated pattern", ds.TableName)
	}

	var rows []map[string]interface{}
	err := m.db.Raw(
		fmt.Sprintf("SELECT * FROM %s ORDER BY id", utils.QuoteIdentifier(ds.TableName)),
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", ds.TableName, err)
	}
	return rows, nil
}

// UpdateCell writes a single cell. The column must sanitize cleanly and must
// currently exist on the table; an unknown column is rejected rather than
// created. Last writer wins, there is no concurrency check.
func (m *Manager) UpdateCell(ds *entity.Dataset, rowID int64, columnName, value string) error {
	col, err := utils.NormalizeColumnName(columnName)
	if err != nil {
		return &InvalidColumnError{Column: columnName}
	}

	live, err := m.ListColumns(ds)
	if err != nil {
		return err
	}
	found := false
	for _, c := range live {
		if c.Name == col {
			found = true
			break
		}
	}
	if !found {
		return &InvalidColumnError{Column: columnName}
	}

	result := m.db.Exec(
		fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?",
			utils.QuoteIdentifier(ds.TableName), utils.QuoteIdentifier(col)),
		value, rowID,
	)
	if result.Error != nil {
		return fmt.Errorf("failed to update cell: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRowNotFound
	}
	return nil
}

// Drop removes the dataset, its backing table and every query link that
// references it, in one transaction. The table name is re-checked against the
// generated-name invariant before the DROP.
func (m *Manager) Drop(ds *entity.Dataset) error {
	if !utils.IsValidTableName(ds.TableName) {
		return fmt.Errorf("refusing to drop %q: table name does not match the generated pattern", ds.TableName)
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("dataset_id = ?", ds.ID).Delete(&entity.QueryLink{}).Error; err != nil {
			return fmt.Errorf("failed to delete query links: %w", err)
		}
		if err := tx.Exec("DROP TABLE IF EXISTS " + utils.QuoteIdentifier(ds.TableName)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", ds.TableName, err)
		}
		if err := tx.Unscoped().Delete(&entity.Dataset{}, "id = ?", ds.ID).Error; err != nil {
			return fmt.Errorf("failed to delete dataset metadata: %w", err)
		}
		return nil
	})
}

// Rename updates the display name only; the table name never changes.
func (m *Manager) Rename(datasetID, ownerID uuid.UUID, newName string) error {
	result := m.db.Model(&entity.Dataset{}).
		Where("id = ? AND created_by = ?", datasetID, ownerID).
		Update("name", newName)
	if result.Error != nil {
		return fmt.Errorf("failed to rename dataset: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForOwner returns the caller's datasets, most recent first.
func (m *Manager) ListForOwner(ownerID uuid.UUID) ([]entity.Dataset, error) {
	var datasets []entity.Dataset
	err := m.db.Where("created_by = ?", ownerID).
		Order("created_at DESC").
		Limit(20).
		Find(&datasets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return datasets, nil
}

// GetForOwner fetches a dataset owned by the caller.
func (m *Manager) GetForOwner(datasetID, ownerID uuid.UUID) (*entity.Dataset, error) {
	var ds entity.Dataset
	err := m.db.Where("id = ? AND created_by = ?", datasetID, ownerID).First(&ds).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	return &ds, nil
}

// Get fetches a dataset by id regardless of owner. Used on the public query
// path where no principal exists.
func (m *Manager) Get(datasetID uuid.UUID) (*entity.Dataset, error) {
	var ds entity.Dataset
	err := m.db.Where("id = ?", datasetID).First(&ds).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	return &ds, nil
}

func (m *Manager) createTableSQL(tableName string, columns []string) string {
	defs := make([]string, 0, len(columns)+2)
	defs = append(defs, m.idColumnDDL())
	for _, col := range columns {
		defs = append(defs, utils.QuoteIdentifier(col)+" TEXT")
	}
	defs = append(defs, "created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP")
	return fmt.Sprintf("CREATE TABLE %s (%s)", utils.QuoteIdentifier(tableName), strings.Join(defs, ", "))
}

func (m *Manager) idColumnDDL() string {
	if m.db.Dialector.Name() == "sqlite" {
		return "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "id BIGSERIAL PRIMARY KEY"
}

func insertRowSQL(tableName string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = utils.QuoteIdentifier(col)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		utils.QuoteIdentifier(tableName), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

func isSystemColumn(name string) bool {
	return name == "id" || name == "created_at"
}
