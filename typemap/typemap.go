package typemap

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// StandardType is the engine-neutral type vocabulary handed to generators.
type StandardType string

const (
	Binary    StandardType = "Binary"
	Bit       StandardType = "Bit"
	Boolean   StandardType = "Boolean"
	Date      StandardType = "Date"
	DateTime  StandardType = "DateTime"
	Decimal   StandardType = "Decimal"
	Double    StandardType = "Double"
	Float     StandardType = "Float"
	Integer   StandardType = "Integer"
	String    StandardType = "String"
	TimeStamp StandardType = "TimeStamp"
)

// AllStandardTypes lists the standard vocabulary.
var AllStandardTypes = []StandardType{
	Binary, Bit, Boolean, Date, DateTime, Decimal, Double, Float, Integer, String, TimeStamp,
}

// ParseStandardType matches s case-insensitively against the vocabulary.
func ParseStandardType(s string) (StandardType, error) {
	for _, st := range AllStandardTypes {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown standard type %q", s)
}

// Vocabulary tags used in FromType/ToType.
const (
	TagMySQL      = "MySQL"
	TagPostgreSQL = "PostgreSQL"
	TagSQLite     = "SQLite"
	TagStandard   = "Standard"
)

// TypeMap translates native type names of one vocabulary into another.
// Keys are stored upper-cased, lookups are case-insensitive.
type TypeMap struct {
	Name        string            `json:"name" yaml:"name"`
	FromType    string            `json:"from_type" yaml:"from_type"`
	ToType      string            `json:"to_type" yaml:"to_type"`
	DefaultType string            `json:"default_type" yaml:"default_type"`
	Map         map[string]string `json:"map" yaml:"map"`
	LockVersion int               `json:"lock_version" yaml:"lock_version"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" yaml:"updated_at"`
}

// New creates an empty map at lock version 1.
func New(name, from, to, defaultType string) *TypeMap {
	now := time.Now().UTC()
	return &TypeMap{
		Name:        name,
		FromType:    from,
		ToType:      to,
		DefaultType: defaultType,
		Map:         make(map[string]string),
		LockVersion: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Key identifies the map by its source and target vocabularies.
func (tm *TypeMap) Key() string {
	return tm.FromType + ":" + tm.ToType
}

// Set adds or replaces the mapping for native.
func (tm *TypeMap) Set(native, target string) {
	if tm.Map == nil {
		tm.Map = make(map[string]string)
	}
	tm.Map[strings.ToUpper(native)] = target
}

// Resolve returns the target type for native, or DefaultType when it is unmapped.
func (tm *TypeMap) Resolve(native string) string {
	if target, ok := tm.Map[strings.ToUpper(native)]; ok {
		return target
	}
	return tm.DefaultType
}

// ResolveStandard resolves native and parses the result as a StandardType.
// Targets outside the vocabulary fall back to the default, then to String.
func (tm *TypeMap) ResolveStandard(native string) StandardType {
	if st, err := ParseStandardType(tm.Resolve(native)); err == nil {
		return st
	}
	if st, err := ParseStandardType(tm.DefaultType); err == nil {
		return st
	}
	return String
}

// NativeTypes returns the mapped native type names sorted alphabetically.
func (tm *TypeMap) NativeTypes() []string {
	types := make([]string, 0, len(tm.Map))
	for k := range tm.Map {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// Select returns the map translating from into to. Maps are never merged,
// the first match wins.
func Select(maps []*TypeMap, from, to string) (*TypeMap, bool) {
	for _, tm := range maps {
		if tm.FromType == from && tm.ToType == to {
			return tm, true
		}
	}
	return nil, false
}
