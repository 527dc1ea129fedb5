package executor

// SelectionSetMapper is the Accumulator that builds the typed JSON result
// tree a read returns to its caller: map[string]any objects keyed by
// response name, []any lists, and scalars passed through unchanged.
type SelectionSetMapper struct{}

func (SelectionSetMapper) AcceptScalar(value any) any { return value }

func (SelectionSetMapper) AcceptList(items []any) any {
	if items == nil {
		return []any{}
	}
	return items
}

func (SelectionSetMapper) AcceptObject(fields []FieldAccumulation, meta ObjectMeta) any {
	obj := make(map[string]any, len(fields))
	for _, f := range fields {
		obj[f.ResponseName] = f.Value
	}
	return obj
}

func (SelectionSetMapper) Finish(root any) any { return root }
