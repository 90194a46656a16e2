package querylink

import (
	"encoding/json"

	"github.com/gtxykn0504/penguin-query/internal/dataset"
	"github.com/gtxykn0504/penguin-query/internal/entity"
)

// ConditionDescriptor is what the public form renders for one searchable
// column. Type is always "text": the backing storage is untyped text, this is
// not an inference step.
type ConditionDescriptor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ColumnName string `json:"column_name"`
	Type       string `json:"type"`
	Required   bool   `json:"required"`
}

// Resolver reconciles a link's stored condition configuration against the
// dataset's current live columns. Columns the operator removed after link
// creation are silently dropped; the public surface must never error merely
// because the configuration drifted.
type Resolver struct {
	registry *Registry
	datasets *dataset.Manager
}

func NewResolver(registry *Registry, datasets *dataset.Manager) *Resolver {
	return &Resolver{registry: registry, datasets: datasets}
}

// Resolve renders the condition descriptors for a public slug.
func (r *Resolver) Resolve(slug string) (string, []ConditionDescriptor, error) {
	link, err := r.registry.ResolveBySlug(slug)
	if err != nil {
		return "", nil, err
	}

	ds, err := r.datasets.Get(link.DatasetID)
	if err != nil {
		return "", nil, err
	}

	descriptors, err := r.conditionsFor(link, ds)
	if err != nil {
		return "", nil, err
	}
	return link.Title, descriptors, nil
}

// conditionsFor decodes the stored configuration and intersects it with the
// live column set, preserving the stored ordering. A decode failure degrades
// to an empty condition set rather than failing the request.
func (r *Resolver) conditionsFor(link *entity.QueryLink, ds *entity.Dataset) ([]ConditionDescriptor, error) {
	var columnNames []string
	if err := json.Unmarshal(link.ConditionColumns, &columnNames); err != nil {
		columnNames = nil
	}
	if len(columnNames) == 0 {
		return []ConditionDescriptor{}, nil
	}

	requirements := map[string]requirement{}
	if err := json.Unmarshal(link.ConditionRequirements, &requirements); err != nil {
		requirements = map[string]requirement{}
	}

	live, err := r.datasets.ListColumns(ds)
	if err != nil {
		return nil, err
	}
	available := make(map[string]struct{}, len(live))
	for _, col := range live {
		available[col.Name] = struct{}{}
	}

	descriptors := make([]ConditionDescriptor, 0, len(columnNames))
	for _, col := range columnNames {
		if _, ok := available[col]; !ok {
			continue
		}
		req := requirements[col]
		name := req.DisplayName
		if name == "" {
			name = col
		}
		descriptors = append(descriptors, ConditionDescriptor{
			ID:         col,
			Name:       name,
			ColumnName: col,
			Type:       "text",
			Required:   req.Required,
		})
	}
	return descriptors, nil
}
