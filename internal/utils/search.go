package utils

import (
	"fmt"

	"github.com/gtxykn0504/penguin-query/internal/entity"
	"gorm.io/gorm"
)

// Document mappers for the optional metadata search index. Only dataset and
// query-link metadata is indexed, never imported row data.

func DatasetToDocument(ds *entity.Dataset) map[string]interface{} {
	return map[string]interface{}{
		"id":         ds.ID.String(),
		"type":       "dataset",
		"name":       ds.Name,
		"total_rows": ds.TotalRows,
		"created_by": ds.CreatedBy.String(),
	}
}

func QueryLinkToDocument(db *gorm.DB, link *entity.QueryLink) (map[string]interface{}, error) {
	var ds entity.Dataset
	if err := db.First(&ds, "id = ?", link.DatasetID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch dataset for query link: %w", err)
	}

	return map[string]interface{}{
		"id":           link.ID.String(),
		"type":         "query_link",
		"name":         link.Title,
		"slug":         link.Slug,
		"dataset_id":   link.DatasetID.String(),
		"dataset_name": ds.Name,
		"created_by":   link.CreatedBy.String(),
	}, nil
}
