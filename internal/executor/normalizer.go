package executor

import (
	"fmt"

	"github.com/hanpama/normcache/internal/cachekey"
	language "github.com/hanpama/normcache/internal/language"
	"github.com/hanpama/normcache/internal/record"
	schema "github.com/hanpama/normcache/internal/schema"
)

// Normalizer is the Accumulator that flattens a GraphQL response payload
// into a RecordSet: every object it visits is written as a Record keyed by
// its cache key, and every object-typed field is replaced in its parent's
// Record by a Reference to that key.
type Normalizer struct {
	rs record.RecordSet
}

// NewNormalizer returns a Normalizer with an empty RecordSet.
func NewNormalizer() *Normalizer {
	return &Normalizer{rs: make(record.RecordSet)}
}

func (n *Normalizer) AcceptScalar(value any) any { return value }

func (n *Normalizer) AcceptList(items []any) any {
	if items == nil {
		return []any{}
	}
	return items
}

func (n *Normalizer) AcceptObject(fields []FieldAccumulation, meta ObjectMeta) any {
	rec := make(record.Record, len(fields)+1)
	for _, f := range fields {
		rec[f.FieldKey] = f.Value
	}
	// __typename is always stored, whether or not the operation selected
	// it, so a later read can resolve abstract-typed references without
	// having to re-query for it.
	if meta.Typename != "" {
		rec["__typename"] = meta.Typename
	}
	if existing, ok := n.rs[meta.Key]; ok {
		for k, v := range rec {
			existing[k] = v
		}
	} else {
		n.rs[meta.Key] = rec
	}
	return cachekey.Ref(meta.Key)
}

func (n *Normalizer) Finish(root any) any { return n.rs }

// Normalize walks a raw GraphQL response payload (data, already decoded
// from JSON) against document/operationName's selection set and flattens
// it into a RecordSet rooted at the operation's root key. forObject may be
// nil, in which case every object without its own declared key falls back
// to a path-derived key.
func Normalize(
	sch *schema.Schema,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	data map[string]any,
	forObject cachekey.ForObject,
) (record.RecordSet, cachekey.Key, error) {
	operation := getOperation(document, operationName)
	if operation == nil {
		return nil, "", fmt.Errorf("normcache: operation %q not found", operationName)
	}
	coercedVars, err := coerceVariableValues(sch, operation, variableValues)
	if err != nil {
		return nil, "", err
	}
	root, rootType, err := rootKeyAndType(sch, operation)
	if err != nil {
		return nil, "", err
	}
	rs, err := normalizeCore(sch, document, operation.SelectionSet, coercedVars, data, forObject, root, rootType)
	if err != nil {
		return nil, "", err
	}
	return rs, root, nil
}

// NormalizeAt flattens data into a RecordSet as if it were already the
// object stored at key, instead of deriving key from the operation's root.
// typeName names key's concrete object type. Used to write directly into a
// single normalized object by identity (e.g. applying a local mutation)
// rather than through a root-anchored operation response.
func NormalizeAt(
	sch *schema.Schema,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	data map[string]any,
	forObject cachekey.ForObject,
	typeName string,
	key cachekey.Key,
) (record.RecordSet, error) {
	operation := getOperation(document, operationName)
	if operation == nil {
		return nil, fmt.Errorf("normcache: operation %q not found", operationName)
	}
	coercedVars, err := coerceVariableValues(sch, operation, variableValues)
	if err != nil {
		return nil, err
	}
	objType := sch.Types[typeName]
	if objType == nil {
		return nil, &TypeMismatch{Detail: "unknown type " + typeName}
	}
	return normalizeCore(sch, document, operation.SelectionSet, coercedVars, data, forObject, key, objType)
}

func normalizeCore(
	sch *schema.Schema,
	document *language.QueryDocument,
	selSet language.SelectionSet,
	coercedVars map[string]any,
	data map[string]any,
	forObject cachekey.ForObject,
	root cachekey.Key,
	rootType *schema.Type,
) (record.RecordSet, error) {
	n := NewNormalizer()
	nc := &normalizeWalker{
		collect:  &collectState{schema: sch, document: document, variableValues: coercedVars},
		sch:      sch,
		forObj:   forObject,
		acc:      n,
		visiting: make(map[cachekey.Key]bool),
	}
	if _, err := nc.walkObject(rootType, selSet, data, root, cachekey.Path{}); err != nil {
		return nil, err
	}
	return n.rs, nil
}

type normalizeWalker struct {
	collect  *collectState
	sch      *schema.Schema
	forObj   cachekey.ForObject
	acc      Accumulator
	visiting map[cachekey.Key]bool
}

// walkObject normalizes one object at the given cache key, recursing into
// its selected fields. A key re-entered while already being walked (a
// cyclic reference) is treated as already resolved: it is not re-descended,
// only referenced.
func (w *normalizeWalker) walkObject(objType *schema.Type, selSet language.SelectionSet, object map[string]any, key cachekey.Key, path cachekey.Path) (any, error) {
	if w.visiting[key] {
		return cachekey.Ref(key), nil
	}
	w.visiting[key] = true
	defer delete(w.visiting, key)

	grouped := collectFields(w.collect, objType, selSet)
	fieldAccs := make([]FieldAccumulation, 0, len(grouped.orderedFields()))

	for _, cf := range grouped.orderedFields() {
		field := cf.Fields[0]
		fieldPath := path.Append(cf.ResponseName)

		if field.Name == "__typename" {
			fieldAccs = append(fieldAccs, FieldAccumulation{
				ResponseName: cf.ResponseName,
				FieldKey:     record.FieldKey(field.Name),
				Value:        w.acc.AcceptScalar(objType.Name),
			})
			continue
		}

		fieldDef := getFieldDefinition(objType, field.Name)
		if fieldDef == nil {
			return nil, &TypeMismatch{Path: fieldPath, Detail: fmt.Sprintf("unknown field %q on type %q", field.Name, objType.Name)}
		}
		args, err := coerceArgumentValues(fieldDef, field.Arguments, w.collect.variableValues, fieldPath)
		if err != nil {
			return nil, err
		}
		fieldKey := record.NewFieldKey(field.Name, args)

		raw, present := object[cf.ResponseName]
		if !present {
			if schema.IsNonNull(fieldDef.Type) {
				return nil, &MissingValue{Path: fieldPath, Key: key}
			}
			raw = nil
		}

		value, err := w.walkValue(fieldDef.Type, cf.Fields, raw, fieldPath, key, cachekey.Path{cf.ResponseName})
		if err != nil {
			return nil, err
		}
		fieldAccs = append(fieldAccs, FieldAccumulation{ResponseName: cf.ResponseName, FieldKey: fieldKey, Value: value})
	}

	return w.acc.AcceptObject(fieldAccs, ObjectMeta{Key: key, Typename: objType.Name}), nil
}

// walkValue normalizes one field value. path is the absolute response path
// (used in errors); relPath is the path from the nearest enclosing object
// (parentKey), which anchors the fallback key of any child the ForObject
// hook declines to identify.
func (w *normalizeWalker) walkValue(fieldType *schema.TypeRef, fields []*language.Field, raw any, path cachekey.Path, parentKey cachekey.Key, relPath cachekey.Path) (any, error) {
	if schema.IsNonNull(fieldType) {
		if raw == nil {
			return nil, &MissingValue{Path: path}
		}
		return w.walkValue(schema.Unwrap(fieldType), fields, raw, path, parentKey, relPath)
	}
	if raw == nil {
		return w.acc.AcceptScalar(nil), nil
	}
	if schema.IsList(fieldType) {
		items, ok := raw.([]any)
		if !ok {
			return nil, &TypeMismatch{Path: path, Detail: fmt.Sprintf("expected list, got %T", raw)}
		}
		inner := schema.Unwrap(fieldType)
		acc := make([]any, len(items))
		for i, item := range items {
			v, err := w.walkValue(inner, fields, item, path.Append(i), parentKey, relPath.Append(i))
			if err != nil {
				return nil, err
			}
			acc[i] = v
		}
		return w.acc.AcceptList(acc), nil
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj := w.sch.Types[namedType]
	if typeObj == nil {
		return nil, &TypeMismatch{Path: path, Detail: "unknown type " + namedType}
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		return w.acc.AcceptScalar(raw), nil
	case schema.TypeKindObject, schema.TypeKindInterface, schema.TypeKindUnion:
		object, ok := raw.(map[string]any)
		if !ok {
			return nil, &TypeMismatch{Path: path, Detail: fmt.Sprintf("expected object, got %T", raw)}
		}
		typename, _ := object["__typename"].(string)
		concrete, err := concreteObjectType(w.sch, typeObj, typename, path)
		if err != nil {
			return nil, err
		}
		childKey := cachekey.Resolve(w.forObj, parentKey, relPath, object)
		sub := mergeSelectionSets(fields)
		return w.walkObject(concrete, sub, object, childKey, path)
	default:
		return nil, &TypeMismatch{Path: path, Detail: "cannot normalize value of kind " + string(typeObj.Kind)}
	}
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}
