package querylink

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gtxykn0504/penguin-query/internal/entity"
)

var (
	// ErrNotFound is returned when a link does not exist, or exists but is not
	// owned by the caller.
	ErrNotFound = errors.New("query link not found")

	// ErrDuplicateSlug is returned when a slug is already taken by another
	// link. Slugs are unique system-wide.
	ErrDuplicateSlug = errors.New("slug is already in use")

	// ErrEmptySlug is returned for blank slugs.
	ErrEmptySlug = errors.New("slug must not be empty")
)

// Condition is the operator's configuration for one searchable column.
type Condition struct {
	ColumnName  string `json:"columnName"`
	DisplayName string `json:"displayName"`
	IsRequired  bool   `json:"isRequired"`
}

// requirement is the persisted per-column metadata, keyed by column name in
// the serialized requirement map.
type requirement struct {
	Required    bool   `json:"required"`
	DisplayName string `json:"displayName"`
}

// LinkSummary is the admin list view of a link, joined with its dataset name.
type LinkSummary struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	DatasetName string    `json:"dataset_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Registry stores the mapping from a public slug to a dataset and a condition
// configuration. The ordered column list and the requirement map are persisted
// separately, both as JSON; the ordering list is the canonical source of which
// columns are searchable.
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Create persists a new link. Slug uniqueness is enforced here and backed by a
// unique index, so a concurrent create loses with ErrDuplicateSlug instead of
// silently violating the invariant.
func (r *Registry) Create(ownerID, datasetID uuid.UUID, slug, title string, conditions []Condition) (*entity.QueryLink, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrEmptySlug
	}

	if taken, err := r.slugTaken(slug, uuid.Nil); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateSlug
	}

	columnNames := make([]string, len(conditions))
	requirements := make(map[string]requirement, len(conditions))
	for i, c := range conditions {
		columnNames[i] = c.ColumnName
		requirements[c.ColumnName] = requirement{
			Required:    c.IsRequired,
			DisplayName: c.DisplayName,
		}
	}

	columnsJSON, err := json.Marshal(columnNames)
	if err != nil {
		return nil, fmt.Errorf("failed to encode condition columns: %w", err)
	}
	requirementsJSON, err := json.Marshal(requirements)
	if err != nil {
		return nil, fmt.Errorf("failed to encode condition requirements: %w", err)
	}

	link := &entity.QueryLink{
		ID:                    uuid.New(),
		DatasetID:             datasetID,
		Slug:                  slug,
		Title:                 strings.TrimSpace(title),
		ConditionColumns:      columnsJSON,
		ConditionRequirements: requirementsJSON,
		CreatedBy:             ownerID,
	}

	if err := r.db.Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create query link: %w", err)
	}
	return link, nil
}

// Rename updates slug and title. The new slug must not belong to another link.
func (r *Registry) Rename(linkID, ownerID uuid.UUID, newSlug, newTitle string) error {
	newSlug = strings.TrimSpace(newSlug)
	if newSlug == "" {
		return ErrEmptySlug
	}

	var link entity.QueryLink
	err := r.db.Where("id = ? AND created_by = ?", linkID, ownerID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to fetch query link: %w", err)
	}

	if taken, err := r.slugTaken(newSlug, link.ID); err != nil {
		return err
	} else if taken {
		return ErrDuplicateSlug
	}

	updates := map[string]interface{}{
		"slug":  newSlug,
		"title": strings.TrimSpace(newTitle),
	}
	if err := r.db.Model(&link).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to update query link: %w", err)
	}
	return nil
}

// Delete removes a link. Deleting a link that does not exist, or that the
// caller does not own, is not an error; it just affects nothing.
func (r *Registry) Delete(linkID, ownerID uuid.UUID) error {
	err := r.db.Unscoped().
		Where("id = ? AND created_by = ?", linkID, ownerID).
		Delete(&entity.QueryLink{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete query link: %w", err)
	}
	return nil
}

// ListForOwner returns the caller's links joined with their dataset names,
// newest first.
func (r *Registry) ListForOwner(ownerID uuid.UUID) ([]LinkSummary, error) {
	var links []LinkSummary
	err := r.db.Model(&entity.QueryLink{}).
		Select("query_links.id, query_links.slug, query_links.title, query_links.created_at, datasets.name AS dataset_name").
		Joins("LEFT JOIN datasets ON datasets.id = query_links.dataset_id").
		Where("query_links.created_by = ?", ownerID).
		Order("query_links.created_at DESC").
		Scan(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list query links: %w", err)
	}
	return links, nil
}

// GetForOwner fetches one link owned by the caller.
func (r *Registry) GetForOwner(linkID, ownerID uuid.UUID) (*entity.QueryLink, error) {
	var link entity.QueryLink
	err := r.db.Where("id = ? AND created_by = ?", linkID, ownerID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch query link: %w", err)
	}
	return &link, nil
}

// ListForDataset returns every link referencing a dataset, regardless of
// owner. Used when a dataset is torn down.
func (r *Registry) ListForDataset(datasetID uuid.UUID) ([]entity.QueryLink, error) {
	var links []entity.QueryLink
	if err := r.db.Where("dataset_id = ?", datasetID).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list query links: %w", err)
	}
	return links, nil
}

// ResolveBySlug is the only registry operation reachable from the anonymous
// public surface. The owner is not part of the returned JSON representation.
func (r *Registry) ResolveBySlug(slug string) (*entity.QueryLink, error) {
	var link entity.QueryLink
	err := r.db.Where("slug = ?", slug).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve slug: %w", err)
	}
	return &link, nil
}

func (r *Registry) slugTaken(slug string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.Model(&entity.QueryLink{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
