package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/hanpama/normcache/internal/cachekey"
	"github.com/hanpama/normcache/internal/dataloader"
	language "github.com/hanpama/normcache/internal/language"
	"github.com/hanpama/normcache/internal/record"
	schema "github.com/hanpama/normcache/internal/schema"
	"github.com/hanpama/normcache/internal/store"
)

// ReadResult is what executing a read operation against a RecordStore
// produces: the typed result tree, the set of cache keys the read actually
// depended on, and the earliest freshness timestamp among them.
type ReadResult struct {
	Data         any
	Dependencies map[cachekey.Key]struct{}
	FreshAsOf    time.Time
}

// Read executes document/operationName against st, resolving every
// Reference it encounters through a single per-read DataLoader so that N
// sibling references become one backend round trip. It returns on the
// first MissingValue, TypeMismatch, or BackendFailure encountered; the
// caller's transaction is expected to discard any partial work.
func Read(
	ctx context.Context,
	st store.RecordStore,
	sch *schema.Schema,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
) (*ReadResult, error) {
	operation := getOperation(document, operationName)
	if operation == nil {
		return nil, fmt.Errorf("normcache: operation %q not found", operationName)
	}
	coercedVars, err := coerceVariableValues(sch, operation, variableValues)
	if err != nil {
		return nil, err
	}
	root, rootType, err := rootKeyAndType(sch, operation)
	if err != nil {
		return nil, err
	}
	return readCore(ctx, st, sch, document, operation.SelectionSet, coercedVars, root, rootType)
}

// ReadAt executes document/operationName's selection set directly against
// key, as if key's stored record were the operation's root, instead of
// resolving a QUERY_ROOT/MUTATION_ROOT/SUBSCRIPTION_ROOT sentinel. typeName
// names key's concrete object type. This lets a caller re-read or watch a
// single normalized object by identity rather than by re-running a
// root-anchored operation.
func ReadAt(
	ctx context.Context,
	st store.RecordStore,
	sch *schema.Schema,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	typeName string,
	key cachekey.Key,
) (*ReadResult, error) {
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
	return readCore(ctx, st, sch, document, operation.SelectionSet, coercedVars, key, objType)
}

func readCore(
	ctx context.Context,
	st store.RecordStore,
	sch *schema.Schema,
	document *language.QueryDocument,
	selSet language.SelectionSet,
	coercedVars map[string]any,
	root cachekey.Key,
	rootType *schema.Type,
) (*ReadResult, error) {
	loader := dataloader.New[cachekey.Key, *record.RecordRow](st.Load)
	acc := Zip(Zip(SelectionSetMapper{}, NewDependencyTracker()), NewTimestampTracker())

	rw := &readWalker{
		collect: &collectState{schema: sch, document: document, variableValues: coercedVars},
		sch:     sch,
		loader:  loader,
		acc:     acc,
	}

	rootFuture := loader.Load(root)
	if err := loader.Dispatch(ctx); err != nil {
		return nil, &BackendFailure{Err: err}
	}
	rootRow, err := rootFuture.Await(ctx)
	if err != nil {
		return nil, err
	}
	if rootRow == nil {
		return nil, &MissingValue{Key: root}
	}

	result, err := rw.walkObject(ctx, rootType, selSet, rootRow, root, cachekey.Path{})
	if err != nil {
		return nil, err
	}

	finished := acc.Finish(result)
	return &ReadResult{
		Data:         First(First(finished)),
		Dependencies: Second(First(finished)).(map[cachekey.Key]struct{}),
		FreshAsOf:    Second(finished).(time.Time),
	}, nil
}

// readWalker recurses through Records fetched from a store, batching every
// Reference queued while scanning one object's fields into a single loader
// Dispatch before descending into any of them.
type readWalker struct {
	collect *collectState
	sch     *schema.Schema
	loader  *dataloader.Loader[cachekey.Key, *record.RecordRow]
	acc     Accumulator
}

// valueResolver finishes resolving one field's value after the enclosing
// object's batch of reference loads has been dispatched.
type valueResolver func(ctx context.Context) (any, error)

func (w *readWalker) walkObject(ctx context.Context, objType *schema.Type, selSet language.SelectionSet, row *record.RecordRow, key cachekey.Key, path cachekey.Path) (any, error) {
	grouped := collectFields(w.collect, objType, selSet)
	ordered := grouped.orderedFields()

	type pending struct {
		responseName string
		fieldKey     record.FieldKey
		resolve      valueResolver
	}
	pendings := make([]pending, 0, len(ordered))

	for _, cf := range ordered {
		field := cf.Fields[0]
		fieldPath := path.Append(cf.ResponseName)

		if field.Name == "__typename" {
			typeName := objType.Name
			pendings = append(pendings, pending{
				responseName: cf.ResponseName,
				fieldKey:     record.FieldKey(field.Name),
				resolve:      func(ctx context.Context) (any, error) { return w.acc.AcceptScalar(typeName), nil },
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

		raw, present := row.Record[fieldKey]
		if !present {
			return nil, &MissingValue{Path: fieldPath, Key: key}
		}

		resolve, err := w.planValue(fieldDef.Type, cf.Fields, raw, fieldPath)
		if err != nil {
			return nil, err
		}
		pendings = append(pendings, pending{responseName: cf.ResponseName, fieldKey: fieldKey, resolve: resolve})
	}

	if err := w.loader.Dispatch(ctx); err != nil {
		return nil, &BackendFailure{Path: path, Err: err}
	}

	fieldAccs := make([]FieldAccumulation, len(pendings))
	for i, p := range pendings {
		v, err := p.resolve(ctx)
		if err != nil {
			return nil, err
		}
		fieldAccs[i] = FieldAccumulation{ResponseName: p.responseName, FieldKey: p.fieldKey, Value: v}
	}
	return w.acc.AcceptObject(fieldAccs, ObjectMeta{Key: key, Typename: objType.Name, LastReceivedAt: row.LastReceivedAt}), nil
}

// planValue inspects a stored field value against its declared type and
// returns a resolver that finishes it once any reference loads it queued
// have been dispatched. Queuing (loader.Load) happens eagerly, here;
// dereferencing (future.Await, recursion) is deferred to the resolver.
func (w *readWalker) planValue(fieldType *schema.TypeRef, fields []*language.Field, raw any, path cachekey.Path) (valueResolver, error) {
	if schema.IsNonNull(fieldType) {
		if raw == nil {
			return nil, &MissingValue{Path: path}
		}
		return w.planValue(schema.Unwrap(fieldType), fields, raw, path)
	}
	if raw == nil {
		return func(ctx context.Context) (any, error) { return w.acc.AcceptScalar(nil), nil }, nil
	}

	if schema.IsList(fieldType) {
		items, ok := raw.([]any)
		if !ok {
			return nil, &TypeMismatch{Path: path, Detail: fmt.Sprintf("expected list, got %T", raw)}
		}
		inner := schema.Unwrap(fieldType)
		resolvers := make([]valueResolver, len(items))
		for i, item := range items {
			r, err := w.planValue(inner, fields, item, path.Append(i))
			if err != nil {
				return nil, err
			}
			resolvers[i] = r
		}
		return func(ctx context.Context) (any, error) {
			vals := make([]any, len(resolvers))
			for i, r := range resolvers {
				v, err := r(ctx)
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			return w.acc.AcceptList(vals), nil
		}, nil
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj := w.sch.Types[namedType]
	if typeObj == nil {
		return nil, &TypeMismatch{Path: path, Detail: "unknown type " + namedType}
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		value := raw
		return func(ctx context.Context) (any, error) { return w.acc.AcceptScalar(value), nil }, nil

	case schema.TypeKindObject, schema.TypeKindInterface, schema.TypeKindUnion:
		ref, ok := raw.(cachekey.Reference)
		if !ok {
			return nil, &TypeMismatch{Path: path, Detail: fmt.Sprintf("expected reference, got %T", raw)}
		}
		future := w.loader.Load(ref.Key)
		sub := mergeSelectionSets(fields)
		return func(ctx context.Context) (any, error) {
			childRow, err := future.Await(ctx)
			if err != nil {
				return nil, &BackendFailure{Path: path, Err: err}
			}
			if childRow == nil {
				return nil, &MissingValue{Path: path, Key: ref.Key}
			}
			typename, _ := childRow.Record["__typename"].(string)
			concrete, err := concreteObjectType(w.sch, typeObj, typename, path)
			if err != nil {
				return nil, err
			}
			return w.walkObject(ctx, concrete, sub, childRow, ref.Key, path)
		}, nil

	default:
		return nil, &TypeMismatch{Path: path, Detail: "cannot read value of kind " + string(typeObj.Kind)}
	}
}
