package executor

import (
	"fmt"

	"github.com/hanpama/normcache/internal/cachekey"
	language "github.com/hanpama/normcache/internal/language"
	schema "github.com/hanpama/normcache/internal/schema"
)

// getOperation picks the operation to execute from document: the sole
// operation if operationName is empty and there is only one, otherwise the
// operation matching operationName by name.
func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(document.Operations) == 1 {
		for _, op := range document.Operations {
			return op
		}
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}

// rootKeyAndType resolves the cache root sentinel and schema root type for
// an operation.
func rootKeyAndType(sch *schema.Schema, operation *language.OperationDefinition) (cachekey.Key, *schema.Type, error) {
	switch operation.Operation {
	case language.Query:
		t := sch.GetQueryType()
		if t == nil {
			return "", nil, fmt.Errorf("normcache: schema has no query type")
		}
		return cachekey.QueryRoot, t, nil
	case language.Mutation:
		t := sch.GetMutationType()
		if t == nil {
			return "", nil, fmt.Errorf("normcache: schema has no mutation type")
		}
		return cachekey.MutationRoot, t, nil
	case language.Subscription:
		t := sch.GetSubscriptionType()
		if t == nil {
			return "", nil, fmt.Errorf("normcache: schema has no subscription type")
		}
		return cachekey.SubscriptionRoot, t, nil
	default:
		return "", nil, fmt.Errorf("normcache: unsupported operation type %q", operation.Operation)
	}
}

// concreteObjectType resolves the concrete OBJECT type for a field whose
// declared type is an interface or union, using the __typename value
// carried alongside the data. declaredType itself is returned unchanged
// when it is already an OBJECT type.
func concreteObjectType(sch *schema.Schema, declaredType *schema.Type, typename string, path cachekey.Path) (*schema.Type, error) {
	if declaredType.Kind == schema.TypeKindObject {
		return declaredType, nil
	}
	if typename == "" {
		return nil, &TypeMismatch{Path: path, Detail: fmt.Sprintf("no __typename given for abstract type %s", declaredType.Name)}
	}
	t := sch.Types[typename]
	if t == nil || t.Kind != schema.TypeKindObject {
		return nil, &TypeMismatch{Path: path, Detail: fmt.Sprintf("__typename %q is not a known object type for abstract type %s", typename, declaredType.Name)}
	}
	return t, nil
}
