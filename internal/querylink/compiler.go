package querylink

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gtxykn0504/penguin-query/internal/utils"
)

// MissingRequiredFieldError names the first required condition the caller left
// empty. No query runs against storage when this is returned.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Field)
}

// Compiler turns submitted search values into a parameterized filter query
// against the dataset's live table. Column identifiers are rendered through
// the sanitizer, search values are always bound parameters.
type Compiler struct {
	db       *gorm.DB
	resolver *Resolver
}

func NewCompiler(db *gorm.DB, resolver *Resolver) *Compiler {
	return &Compiler{db: db, resolver: resolver}
}

// Execute resolves the slug, validates required conditions in their stored
// order and runs the compiled query. The live condition set is re-derived
// here; a client-cached condition list is never trusted. Rows come back with
// system columns included; the consumer decides what to display.
func (c *Compiler) Execute(slug string, values map[string]string) ([]map[string]interface{}, error) {
	link, err := c.resolver.registry.ResolveBySlug(slug)
	if err != nil {
		return nil, err
	}
	ds, err := c.resolver.datasets.Get(link.DatasetID)
	if err != nil {
		return nil, err
	}

	conditions, err := c.resolver.conditionsFor(link, ds)
	if err != nil {
		return nil, err
	}

	var predicates []string
	var args []interface{}
	for _, cond := range conditions {
		value := strings.TrimSpace(values[cond.ColumnName])
		if cond.Required && value == "" {
			return nil, &MissingRequiredFieldError{Field: cond.Name}
		}
		if value == "" {
			continue
		}
		predicates = append(predicates, utils.QuoteIdentifier(cond.ColumnName)+" LIKE ?")
		args = append(args, "%"+value+"%")
	}

	if !utils.IsValidTableName(ds.TableName) {
		return nil, fmt.Errorf("table name %q does not match the generated pattern", ds.TableName)
	}

	// Zero predicates compile to an unfiltered scan.
	query := "SELECT * FROM " + utils.QuoteIdentifier(ds.TableName)
	if len(predicates) > 0 {
		query += " WHERE " + strings.Join(predicates, " AND ")
	}

	var results []map[string]interface{}
	if err := c.db.Raw(query, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return results, nil
}
