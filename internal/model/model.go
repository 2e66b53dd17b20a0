// Package model contains domain entities and DTOs used across layers.
// Kept lean and focused on data shapes without behavior.
package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityReference points at another catalog entity (service, user, team)
// without embedding it.
type EntityReference struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"` // dashboardService, user, team
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
}

// TagLabel is a classification tag applied to an entity by its FQN.
type TagLabel struct {
	TagFQN    string `json:"tag_fqn"`
	LabelType string `json:"label_type"` // manual, derived
	State     string `json:"state"`      // suggested, confirmed
}

// DashboardService is the container entity charts belong to. Its name is the
// first segment of every owned chart's fully-qualified name.
type DashboardService struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ServiceType string    `json:"service_type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chart is the representative catalog entity. FullyQualifiedName is the
// unique, dot-delimited sort key ("<service>.<chart>") all listings order by.
type Chart struct {
	ID                 uuid.UUID         `json:"id"`
	Name               string            `json:"name"`
	DisplayName        string            `json:"display_name,omitempty"`
	Description        string            `json:"description,omitempty"`
	ChartType          string            `json:"chart_type,omitempty"` // line, bar, pie, table, other
	ChartURL           string            `json:"chart_url,omitempty"`
	FullyQualifiedName string            `json:"fully_qualified_name"`
	Version            float64           `json:"version"`
	UpdatedBy          string            `json:"updated_by,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Service            *EntityReference  `json:"service,omitempty"`
	Owner              *EntityReference  `json:"owner,omitempty"`
	Followers          []EntityReference `json:"followers,omitempty"`
	Tags               []TagLabel        `json:"tags,omitempty"`
}

// ChartFQN builds the canonical sort key for a chart under a service.
func ChartFQN(serviceName, chartName string) string {
	return serviceName + "." + chartName
}
