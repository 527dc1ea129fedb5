package executor

// pair is the accumulation value a zipped Accumulator threads through the
// walk: the left accumulator's contribution alongside the right's.
type pair struct {
	left  any
	right any
}

type zipAccumulator struct {
	left  Accumulator
	right Accumulator
}

// Zip combines two accumulators into one that runs both over the same
// selection set walk in a single pass. Its accumulation values are *pair;
// unzip the result with First/Second, or nest Zip(Zip(a, b), c) to combine
// three or more.
func Zip(left, right Accumulator) Accumulator {
	return &zipAccumulator{left: left, right: right}
}

func (z *zipAccumulator) AcceptScalar(value any) any {
	return &pair{
		left:  z.left.AcceptScalar(value),
		right: z.right.AcceptScalar(value),
	}
}

func (z *zipAccumulator) AcceptList(items []any) any {
	leftItems := make([]any, len(items))
	rightItems := make([]any, len(items))
	for i, item := range items {
		p := item.(*pair)
		leftItems[i] = p.left
		rightItems[i] = p.right
	}
	return &pair{
		left:  z.left.AcceptList(leftItems),
		right: z.right.AcceptList(rightItems),
	}
}

func (z *zipAccumulator) AcceptObject(fields []FieldAccumulation, meta ObjectMeta) any {
	leftFields := make([]FieldAccumulation, len(fields))
	rightFields := make([]FieldAccumulation, len(fields))
	for i, f := range fields {
		p := f.Value.(*pair)
		leftFields[i] = FieldAccumulation{ResponseName: f.ResponseName, FieldKey: f.FieldKey, Value: p.left}
		rightFields[i] = FieldAccumulation{ResponseName: f.ResponseName, FieldKey: f.FieldKey, Value: p.right}
	}
	return &pair{
		left:  z.left.AcceptObject(leftFields, meta),
		right: z.right.AcceptObject(rightFields, meta),
	}
}

func (z *zipAccumulator) Finish(root any) any {
	p := root.(*pair)
	return &pair{
		left:  z.left.Finish(p.left),
		right: z.right.Finish(p.right),
	}
}

// First unzips the left accumulator's final result from a Zip's Finish
// output.
func First(result any) any { return result.(*pair).left }

// Second unzips the right accumulator's final result from a Zip's Finish
// output.
func Second(result any) any { return result.(*pair).right }
