// Package model contains the single source of truth for the data model and
// connection configuration that the reconciliation engine reads. It mirrors
// the data as declared in JSON (spec §3) with the exact key sets required.
package model

import (
	"fmt"
	"strings"
)

// IndexChoice is an ENUM with all possible index kinds.
type IndexChoice string

const (
	IndexChoicePlain    IndexChoice = "index"
	IndexChoiceUnique   IndexChoice = "unique"
	IndexChoiceSpatial  IndexChoice = "spatial"
	IndexChoiceFulltext IndexChoice = "fulltext"
)

// IndexAlgorithm is an ENUM with the supported index algorithms.
type IndexAlgorithm string

const (
	IndexBTree IndexAlgorithm = "BTREE"
	IndexHash  IndexAlgorithm = "HASH"
)

// AttributeDefinition describes one scalar column on an entity.
// The JSON key set is exact: type, lengthOrValues, default, allowNull.
type AttributeDefinition struct {
	Type           string `json:"type"`
	LengthOrValues *LengthOrValues `json:"lengthOrValues"`
	Default        *string         `json:"default"`
	AllowNull      bool            `json:"allowNull"`
}

// CurrentTimestamp is the sentinel default value meaning the unquoted SQL
// function CURRENT_TIMESTAMP, never a literal string.
const CurrentTimestamp = "CURRENT_TIMESTAMP"

// IndexDefinition describes one index on an entity.
// The JSON key set is exact: attribute, indexName, indexChoice, type.
type IndexDefinition struct {
	Attribute   string         `json:"attribute"`
	IndexName   string         `json:"indexName"`
	IndexChoice IndexChoice    `json:"indexChoice"`
	Type        IndexAlgorithm `json:"type"`
}

// EntityOptions configures optional per-entity behavior.
type EntityOptions struct {
	EnforceLockingConstraints bool `json:"enforceLockingConstraints"`
	IsAuditEnabled            bool `json:"isAuditEnabled"`
}

// DefaultEntityOptions is used when an entity omits "options" entirely.
func DefaultEntityOptions() EntityOptions {
	return EntityOptions{EnforceLockingConstraints: true, IsAuditEnabled: true}
}

// EntityDefinition describes one table-shaped entity in the data model.
type EntityDefinition struct {
	Module        string                          `json:"module"`
	Attributes    map[string]AttributeDefinition   `json:"attributes"`
	Indexes       []IndexDefinition                `json:"indexes"`
	Relationships map[string][]string              `json:"relationships"`
	Options       EntityOptions                    `json:"options"`

	// AttributeOrder and RelationshipOrder preserve the insertion order JSON gives
	// attributes and relationships in, so that diff/DDL emission follows
	// deterministic "iteration over the model's insertion order" (spec §5).
	AttributeOrder    []string `json:"-"`
	RelationshipOrder []string `json:"-"`
}

// DataModel is the full set of entities, keyed by entity name.
type DataModel struct {
	Entities    map[string]*EntityDefinition `json:"-"`
	EntityOrder []string                     `json:"-"`
}

// Entity looks up an entity by name, nil if absent.
func (m *DataModel) Entity(name string) *EntityDefinition {
	if m == nil {
		return nil
	}
	return m.Entities[name]
}

// ModuleSchemaMapping is one {moduleName, schemaName} pair in connection
// config's ordered moduleSchemaMapping sequence.
type ModuleSchemaMapping struct {
	ModuleName string `json:"moduleName"`
	SchemaName string `json:"schemaName"`
}

// TLSConfig holds an optional TLS bundle for a connection.
type TLSConfig struct {
	CA   string `json:"ca,omitempty"`
	Key  string `json:"key,omitempty"`
	Cert string `json:"cert,omitempty"`
}

// ConnectionConfig is the full connection configuration document (spec §3).
type ConnectionConfig struct {
	Host                string                `json:"host"`
	User                string                `json:"user"`
	Password            string                `json:"password"`
	Database            string                `json:"database"`
	Port                int                   `json:"port"`
	SSL                 *TLSConfig            `json:"ssl"`
	ModuleSchemaMapping []ModuleSchemaMapping `json:"moduleSchemaMapping"`
}

// SchemaForModule resolves the schema name for a module, "" if not mapped.
func (c *ConnectionConfig) SchemaForModule(module string) string {
	for _, m := range c.ModuleSchemaMapping {
		if m.ModuleName == module {
			return m.SchemaName
		}
	}
	return ""
}

// Modules returns the distinct module names in mapping order.
func (c *ConnectionConfig) Modules() []string {
	out := make([]string, 0, len(c.ModuleSchemaMapping))
	for _, m := range c.ModuleSchemaMapping {
		out = append(out, m.ModuleName)
	}
	return out
}

// LengthOrValues is null, an integer, or a comma-separated value list (for
// enum/set types) in the source JSON. It is represented internally as
// either an Int or a raw string of values.
type LengthOrValues struct {
	Int    *int
	Values string
}

// String renders the value as it should appear inside a column type's
// parenthesized clause, e.g. "50" or "'free','pro','enterprise'".
func (l *LengthOrValues) String() string {
	if l == nil {
		return ""
	}
	if l.Int != nil {
		return fmt.Sprintf("%d", *l.Int)
	}
	return l.Values
}

// IsEnumValues reports whether this holds an enum/set value list rather
// than a numeric length.
func (l *LengthOrValues) IsEnumValues() bool {
	return l != nil && l.Int == nil && l.Values != ""
}

// EqualAsString compares two LengthOrValues the way column reconciliation
// does: the model's length is coerced to its string form (spec §4.5.3).
func (l *LengthOrValues) EqualAsString(other string) bool {
	if l == nil {
		return strings.TrimSpace(other) == ""
	}
	return l.String() == strings.TrimSpace(other)
}
