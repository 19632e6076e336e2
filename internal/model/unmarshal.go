package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UnmarshalJSON enforces the exact key set {type, lengthOrValues, default,
// allowNull} for an attribute definition (spec §3, §4.2).
func (a *AttributeDefinition) UnmarshalJSON(data []byte) error {
	_, raw, err := decodeOrderedObject(data)
	if err != nil {
		return err
	}
	if err := requireExactKeys("attribute", raw, []string{"type", "lengthOrValues", "default", "allowNull"}, nil); err != nil {
		return err
	}

	if err := json.Unmarshal(raw["type"], &a.Type); err != nil {
		return fmt.Errorf("attribute.type: %w", err)
	}

	lov, err := unmarshalLengthOrValues(raw["lengthOrValues"])
	if err != nil {
		return fmt.Errorf("attribute.lengthOrValues: %w", err)
	}
	a.LengthOrValues = lov

	def, err := unmarshalNullableString(raw["default"])
	if err != nil {
		return fmt.Errorf("attribute.default: %w", err)
	}
	a.Default = def

	if err := json.Unmarshal(raw["allowNull"], &a.AllowNull); err != nil {
		return fmt.Errorf("attribute.allowNull: %w", err)
	}
	return nil
}

func unmarshalNullableString(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func unmarshalLengthOrValues(raw json.RawMessage) (*LengthOrValues, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return &LengthOrValues{Int: &asInt}, nil
	}
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err == nil {
		return &LengthOrValues{Values: asStr}, nil
	}
	return nil, fmt.Errorf("must be null, an integer, or a string")
}

// UnmarshalJSON enforces the exact key set {attribute, indexName,
// indexChoice, type} and case-insensitively canonicalizes the two enums.
func (idx *IndexDefinition) UnmarshalJSON(data []byte) error {
	_, raw, err := decodeOrderedObject(data)
	if err != nil {
		return err
	}
	if err := requireExactKeys("index", raw, []string{"attribute", "indexName", "indexChoice", "type"}, nil); err != nil {
		return err
	}

	if err := json.Unmarshal(raw["attribute"], &idx.Attribute); err != nil {
		return fmt.Errorf("index.attribute: %w", err)
	}
	if err := json.Unmarshal(raw["indexName"], &idx.IndexName); err != nil {
		return fmt.Errorf("index.indexName: %w", err)
	}

	var choice, kind string
	if err := json.Unmarshal(raw["indexChoice"], &choice); err != nil {
		return fmt.Errorf("index.indexChoice: %w", err)
	}
	canonicalChoice, ok := canonicalIndexChoice(choice)
	if !ok {
		return fmt.Errorf("index.indexChoice: %q is not one of index, unique, spatial, fulltext", choice)
	}
	idx.IndexChoice = canonicalChoice

	if err := json.Unmarshal(raw["type"], &kind); err != nil {
		return fmt.Errorf("index.type: %w", err)
	}
	canonicalType, ok := canonicalIndexAlgorithm(kind)
	if !ok {
		return fmt.Errorf("index.type: %q is not one of BTREE, HASH", kind)
	}
	idx.Type = canonicalType

	return nil
}

func canonicalIndexChoice(s string) (IndexChoice, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "index":
		return IndexChoicePlain, true
	case "unique":
		return IndexChoiceUnique, true
	case "spatial":
		return IndexChoiceSpatial, true
	case "fulltext":
		return IndexChoiceFulltext, true
	default:
		return "", false
	}
}

func canonicalIndexAlgorithm(s string) (IndexAlgorithm, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BTREE":
		return IndexBTree, true
	case "HASH":
		return IndexHash, true
	default:
		return "", false
	}
}

// UnmarshalJSON accepts a JSON true/false (enforceLockingConstraints,
// isAuditEnabled both default true when "options" is omitted entirely from
// the entity; see EntityDefinition.UnmarshalJSON for that default).
func (o *EntityOptions) UnmarshalJSON(data []byte) error {
	_, raw, err := decodeOrderedObject(data)
	if err != nil {
		return err
	}
	if err := requireExactKeys("options", raw, nil, []string{"enforceLockingConstraints", "isAuditEnabled"}); err != nil {
		return err
	}

	*o = DefaultEntityOptions()
	if v, ok := raw["enforceLockingConstraints"]; ok {
		if err := json.Unmarshal(v, &o.EnforceLockingConstraints); err != nil {
			return fmt.Errorf("options.enforceLockingConstraints: %w", err)
		}
	}
	if v, ok := raw["isAuditEnabled"]; ok {
		if err := json.Unmarshal(v, &o.IsAuditEnabled); err != nil {
			return fmt.Errorf("options.isAuditEnabled: %w", err)
		}
	}
	return nil
}

// UnmarshalJSON enforces {module, attributes} required and {indexes,
// relationships, options} optional-with-defaults (spec §4.2).
func (e *EntityDefinition) UnmarshalJSON(data []byte) error {
	_, raw, err := decodeOrderedObject(data)
	if err != nil {
		return err
	}
	if err := requireExactKeys("entity", raw, []string{"module", "attributes"}, []string{"indexes", "relationships", "options"}); err != nil {
		return err
	}

	if err := json.Unmarshal(raw["module"], &e.Module); err != nil {
		return fmt.Errorf("entity.module: %w", err)
	}

	attrOrder, attrRaw, err := decodeOrderedObject(raw["attributes"])
	if err != nil {
		return fmt.Errorf("entity.attributes: %w", err)
	}
	if len(attrOrder) == 0 {
		return fmt.Errorf("entity.attributes: must be non-empty")
	}
	e.Attributes = make(map[string]AttributeDefinition, len(attrOrder))
	e.AttributeOrder = attrOrder
	for _, name := range attrOrder {
		var a AttributeDefinition
		if err := json.Unmarshal(attrRaw[name], &a); err != nil {
			return fmt.Errorf("entity.attributes[%q]: %w", name, err)
		}
		e.Attributes[name] = a
	}

	if v, ok := raw["indexes"]; ok {
		if err := json.Unmarshal(v, &e.Indexes); err != nil {
			return fmt.Errorf("entity.indexes: %w", err)
		}
	}

	if v, ok := raw["relationships"]; ok {
		relOrder, relRaw, err := decodeOrderedObject(v)
		if err != nil {
			return fmt.Errorf("entity.relationships: %w", err)
		}
		e.Relationships = make(map[string][]string, len(relOrder))
		e.RelationshipOrder = relOrder
		for _, name := range relOrder {
			var roles []string
			if err := json.Unmarshal(relRaw[name], &roles); err != nil {
				return fmt.Errorf("entity.relationships[%q]: must be a sequence of role names: %w", name, err)
			}
			e.Relationships[name] = roles
		}
	}

	if v, ok := raw["options"]; ok {
		if err := json.Unmarshal(v, &e.Options); err != nil {
			return fmt.Errorf("entity.options: %w", err)
		}
	} else {
		e.Options = DefaultEntityOptions()
	}

	return nil
}

// UnmarshalJSON decodes the top-level entityName -> EntityDefinition
// mapping, preserving declaration order.
func (m *DataModel) UnmarshalJSON(data []byte) error {
	order, raw, err := decodeOrderedObject(data)
	if err != nil {
		return fmt.Errorf("data model: %w", err)
	}

	m.Entities = make(map[string]*EntityDefinition, len(order))
	m.EntityOrder = order
	for _, name := range order {
		var e EntityDefinition
		if err := json.Unmarshal(raw[name], &e); err != nil {
			return fmt.Errorf("entity %q: %w", name, err)
		}
		m.Entities[name] = &e
	}
	return nil
}

var connectionConfigRequiredKeys = []string{"host", "user", "password", "database", "port", "ssl", "moduleSchemaMapping"}

// UnmarshalJSON enforces the exact key set for ConnectionConfig (spec §4.2).
func (c *ConnectionConfig) UnmarshalJSON(data []byte) error {
	_, raw, err := decodeOrderedObject(data)
	if err != nil {
		return err
	}
	if err := requireExactKeys("connectionConfig", raw, connectionConfigRequiredKeys, nil); err != nil {
		return err
	}

	if err := json.Unmarshal(raw["host"], &c.Host); err != nil {
		return fmt.Errorf("connectionConfig.host: %w", err)
	}
	if err := json.Unmarshal(raw["user"], &c.User); err != nil {
		return fmt.Errorf("connectionConfig.user: %w", err)
	}
	if err := json.Unmarshal(raw["password"], &c.Password); err != nil {
		return fmt.Errorf("connectionConfig.password: %w", err)
	}
	if err := json.Unmarshal(raw["database"], &c.Database); err != nil {
		return fmt.Errorf("connectionConfig.database: %w", err)
	}

	portRaw := strings.TrimSpace(string(raw["port"]))
	if portRaw == "" || portRaw == "null" {
		return fmt.Errorf("connectionConfig.port: must not be null")
	}
	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return fmt.Errorf("connectionConfig.port: %w", err)
	}
	c.Port = port

	if sslRaw := raw["ssl"]; string(sslRaw) != "null" && len(sslRaw) > 0 {
		var tls TLSConfig
		if err := json.Unmarshal(sslRaw, &tls); err != nil {
			return fmt.Errorf("connectionConfig.ssl: %w", err)
		}
		c.SSL = &tls
	}

	if err := json.Unmarshal(raw["moduleSchemaMapping"], &c.ModuleSchemaMapping); err != nil {
		return fmt.Errorf("connectionConfig.moduleSchemaMapping: %w", err)
	}

	return nil
}
