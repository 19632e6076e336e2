package model

import (
	"fmt"
	"strings"
)

// ValidationError carries enough context to pinpoint the offending entity
// or attribute in a human-readable diagnostic (spec §4.2).
type ValidationError struct {
	Entity    string
	Attribute string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("model: entity %q, attribute %q: %s", e.Entity, e.Attribute, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("model: entity %q: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("model: %s", e.Message)
}

var allowedAttributeTypes = map[string]bool{
	"varchar": true, "char": true, "text": true, "tinytext": true, "mediumtext": true, "longtext": true,
	"bigint": true, "int": true, "smallint": true, "tinyint": true, "mediumint": true,
	"decimal": true, "float": true, "double": true,
	"datetime": true, "date": true, "time": true, "timestamp": true, "year": true,
	"json": true, "geometry": true, "point": true, "enum": true, "set": true,
	"blob": true, "tinyblob": true, "mediumblob": true, "longblob": true, "binary": true, "varbinary": true,
	"boolean": true, "bool": true,
}

// Validate runs all structural checks on the data model against the
// supplied connection config, returning the first error encountered
// (spec §4.2). On success it returns nil and leaves the model unchanged —
// defaulting of indexes/relationships/options already happened during
// JSON decoding.
func Validate(m *DataModel, conn *ConnectionConfig) error {
	if m == nil {
		return &ValidationError{Message: "data model is nil"}
	}
	if conn == nil {
		return &ValidationError{Message: "connection config is nil"}
	}

	if err := validateConnectionConfig(conn); err != nil {
		return err
	}

	for _, name := range m.EntityOrder {
		entity := m.Entities[name]
		if err := validateEntity(name, entity, m, conn); err != nil {
			return err
		}
	}

	return nil
}

func validateConnectionConfig(c *ConnectionConfig) error {
	if strings.TrimSpace(c.Host) == "" {
		return &ValidationError{Message: "connection config: host is required"}
	}
	if strings.TrimSpace(c.User) == "" {
		return &ValidationError{Message: "connection config: user is required"}
	}
	if c.Port <= 0 {
		return &ValidationError{Message: "connection config: port must be positive"}
	}
	if len(c.ModuleSchemaMapping) == 0 {
		return &ValidationError{Message: "connection config: moduleSchemaMapping must be non-empty"}
	}
	seen := make(map[string]bool, len(c.ModuleSchemaMapping))
	for _, mm := range c.ModuleSchemaMapping {
		if strings.TrimSpace(mm.ModuleName) == "" || strings.TrimSpace(mm.SchemaName) == "" {
			return &ValidationError{Message: "connection config: moduleSchemaMapping entries require moduleName and schemaName"}
		}
		if seen[mm.ModuleName] {
			return &ValidationError{Message: fmt.Sprintf("connection config: duplicate moduleName %q", mm.ModuleName)}
		}
		seen[mm.ModuleName] = true
	}
	return nil
}

func validateEntity(name string, e *EntityDefinition, m *DataModel, conn *ConnectionConfig) error {
	if e == nil {
		return &ValidationError{Entity: name, Message: "entity is nil"}
	}
	if strings.TrimSpace(e.Module) == "" {
		return &ValidationError{Entity: name, Message: "module is required"}
	}
	if conn.SchemaForModule(e.Module) == "" {
		return &ValidationError{Entity: name, Message: fmt.Sprintf("module %q is not present in connection config moduleSchemaMapping", e.Module)}
	}
	if len(e.Attributes) == 0 {
		return &ValidationError{Entity: name, Message: "attributes must be non-empty"}
	}

	for _, attrName := range e.AttributeOrder {
		attr := e.Attributes[attrName]
		if err := validateAttribute(name, attrName, &attr); err != nil {
			return err
		}
	}

	if err := validateIndexes(name, e); err != nil {
		return err
	}

	if err := validateRelationships(name, e, m); err != nil {
		return err
	}

	return nil
}

func validateAttribute(entity, attrName string, a *AttributeDefinition) error {
	lowerType := strings.ToLower(strings.TrimSpace(a.Type))
	if lowerType == "" {
		return &ValidationError{Entity: entity, Attribute: attrName, Message: "type is required"}
	}
	if !allowedAttributeTypes[lowerType] {
		return &ValidationError{Entity: entity, Attribute: attrName, Message: fmt.Sprintf("unrecognized SQL type token %q", a.Type)}
	}
	if a.Default != nil && *a.Default != CurrentTimestamp && !a.AllowNull {
		// Non-null, non-CURRENT_TIMESTAMP defaults are fine on NOT NULL
		// columns; nothing further to check here structurally.
		_ = a
	}
	return nil
}

func validateIndexes(entity string, e *EntityDefinition) error {
	seen := make(map[string]bool, len(e.Indexes))
	for _, idx := range e.Indexes {
		if _, ok := e.Attributes[idx.Attribute]; !ok {
			return &ValidationError{Entity: entity, Message: fmt.Sprintf("index %q references unknown attribute %q", idx.IndexName, idx.Attribute)}
		}
		if seen[idx.IndexName] {
			return &ValidationError{Entity: entity, Message: fmt.Sprintf("duplicate index name %q", idx.IndexName)}
		}
		seen[idx.IndexName] = true
	}
	return nil
}

func validateRelationships(entity string, e *EntityDefinition, m *DataModel) error {
	for _, relName := range e.RelationshipOrder {
		roles := e.Relationships[relName]
		if _, ok := m.Entities[relName]; !ok {
			return &ValidationError{Entity: entity, Message: fmt.Sprintf("relationship %q is not a known entity name", relName)}
		}
		if len(roles) == 0 {
			return &ValidationError{Entity: entity, Message: fmt.Sprintf("relationship %q has no roles", relName)}
		}
		seen := make(map[string]bool, len(roles))
		for _, role := range roles {
			if strings.TrimSpace(role) == "" {
				return &ValidationError{Entity: entity, Message: fmt.Sprintf("relationship %q has an empty role name", relName)}
			}
			if seen[role] {
				return &ValidationError{Entity: entity, Message: fmt.Sprintf("relationship %q has duplicate role %q", relName, role)}
			}
			seen[role] = true
		}
	}
	return nil
}
