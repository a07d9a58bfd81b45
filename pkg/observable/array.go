package observable

import (
	stderrors "errors"
	"sort"
	"strconv"
)

// Push appends values to the array at path.
func (o *Object) Push(path string, values ...any) error {
	if len(values) == 0 {
		return nil
	}
	return o.arrayOp(path, func(full Path, arr []any) ([]any, []Change, error) {
		changes := make([]Change, 0, len(values))
		for _, v := range values {
			v = normalize(v)
			changes = append(changes, Change{
				Type:  Insert,
				Path:  full.join(Path{strconv.Itoa(len(arr))}),
				Value: clone(v),
			})
			arr = append(arr, v)
		}
		return arr, changes, nil
	})
}

// Pop removes and returns the last element of the array at path. It returns
// nil if the array is empty.
func (o *Object) Pop(path string) (any, error) {
	var removed any
	err := o.arrayOp(path, func(full Path, arr []any) ([]any, []Change, error) {
		if len(arr) == 0 {
			return arr, nil, nil
		}
		last := len(arr) - 1
		removed = arr[last]
		return arr[:last:last], []Change{{
			Type:     Delete,
			Path:     full.join(Path{strconv.Itoa(last)}),
			OldValue: removed,
		}}, nil
	})
	return clone(removed), err
}

// Shift removes and returns the first element of the array at path. It
// returns nil if the array is empty.
func (o *Object) Shift(path string) (any, error) {
	var removed any
	err := o.arrayOp(path, func(full Path, arr []any) ([]any, []Change, error) {
		if len(arr) == 0 {
			return arr, nil, nil
		}
		removed = arr[0]
		return append([]any(nil), arr[1:]...), []Change{{
			Type:     Delete,
			Path:     full.join(Path{"0"}),
			OldValue: removed,
		}}, nil
	})
	return clone(removed), err
}

// Unshift prepends values to the array at path, keeping their order.
func (o *Object) Unshift(path string, values ...any) error {
	if len(values) == 0 {
		return nil
	}
	return o.arrayOp(path, func(full Path, arr []any) ([]any, []Change, error) {
		out := make([]any, 0, len(arr)+len(values))
		changes := make([]Change, 0, len(values))
		for i, v := range values {
			v = normalize(v)
			out = append(out, v)
			changes = append(changes, Change{
				Type:  Insert,
				Path:  full.join(Path{strconv.Itoa(i)}),
				Value: clone(v),
			})
		}
		return append(out, arr...), changes, nil
	})
}

// Splice removes deleteCount elements starting at start and inserts items in
// their place. start is clamped to the array bounds and a negative start
// counts from the end. It returns the removed elements.
func (o *Object) Splice(path string, start, deleteCount int, items ...any) ([]any, error) {
	var removed []any
	err := o.arrayOp(path, func(full Path, arr []any) ([]any, []Change, error) {
		n := len(arr)
		if start < 0 {
			start = max(n+start, 0)
		}
		start = min(start, n)
		deleteCount = min(max(deleteCount, 0), n-start)

		var changes []Change
		removed = append([]any(nil), arr[start:start+deleteCount]...)
		for i, old := range removed {
			changes = append(changes, Change{
				Type:     Delete,
				Path:     full.join(Path{strconv.Itoa(start + i)}),
				OldValue: old,
			})
		}

		out := make([]any, 0, n-deleteCount+len(items))
		out = append(out, arr[:start]...)
		for i, v := range items {
			v = normalize(v)
			out = append(out, v)
			changes = append(changes, Change{
				Type:  Insert,
				Path:  full.join(Path{strconv.Itoa(start + i)}),
				Value: clone(v),
			})
		}
		out = append(out, arr[start+deleteCount:]...)
		return out, changes, nil
	})
	return clone(removed).([]any), err
}

// Reverse reverses the array at path in place.
func (o *Object) Reverse(path string) error {
	return o.arrayOp(path, func(full Path, arr []any) ([]any, []Change, error) {
		if len(arr) < 2 {
			return arr, nil, nil
		}
		for i, j := 0, len(arr)-1; i < j; i, j = i+1, j-1 {
			arr[i], arr[j] = arr[j], arr[i]
		}
		return arr, []Change{{Type: Reverse, Path: full}}, nil
	})
}

// errStale aborts a Sort whose array changed while less was running.
var errStale = stderrors.New("observable: array changed during sort")

// Sort stably sorts the array at path with less. less runs without the
// object's lock on copies of the elements, so it may read the object. If
// the object changes meanwhile, the sort starts over.
func (o *Object) Sort(path string, less func(a, b any) bool) error {
	c := o.c
	full := o.resolve(path)
	for {
		c.mu.Lock()
		node, _ := lookup(c.root, full)
		version := c.version
		c.mu.Unlock()

		items, _ := clone(node).([]any)
		order := make([]int, len(items))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool { return less(items[order[i]], items[order[j]]) })

		err := o.arrayOp(path, func(full Path, arr []any) ([]any, []Change, error) {
			if c.version != version || len(arr) != len(items) {
				return nil, nil, errStale
			}
			if len(arr) < 2 {
				return arr, nil, nil
			}
			sorted := make([]any, len(arr))
			for i, from := range order {
				sorted[i] = arr[from]
			}
			return sorted, []Change{{Type: Shuffle, Path: full}}, nil
		})
		if !stderrors.Is(err, errStale) {
			return err
		}
	}
}

// arrayOp applies fn to the array at path and records its changes.
func (o *Object) arrayOp(path string, fn func(full Path, arr []any) ([]any, []Change, error)) error {
	full := o.resolve(path)
	return o.mutate(func() ([]Change, error) {
		var changes []Change
		err := o.c.update(full, func(node any) (any, error) {
			arr, ok := node.([]any)
			if !ok {
				return nil, errNotArray(full, node)
			}
			out, ch, err := fn(full, arr)
			if err != nil {
				return nil, err
			}
			changes = ch
			return out, nil
		})
		return changes, err
	})
}
