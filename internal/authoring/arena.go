package authoring

// arena keeps elements addressable by a stable id while preserving insertion order.
type arena[T any] struct {
	order []string
	items map[string]*T
}

func newArena[T any]() *arena[T] {
	return &arena[T]{items: make(map[string]*T)}
}

func (a *arena[T]) add(id string, item *T) {
	if _, exists := a.items[id]; !exists {
		a.order = append(a.order, id)
	}
	a.items[id] = item
}

func (a *arena[T]) get(id string) (*T, bool) {
	item, ok := a.items[id]
	return item, ok
}

func (a *arena[T]) remove(id string) bool {
	if _, ok := a.items[id]; !ok {
		return false
	}
	delete(a.items, id)
	for i, existing := range a.order {
		if existing == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

func (a *arena[T]) len() int {
	return len(a.order)
}

// list returns the elements in insertion order.
func (a *arena[T]) list() []*T {
	out := make([]*T, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.items[id])
	}
	return out
}

func (a *arena[T]) last() (*T, bool) {
	if len(a.order) == 0 {
		return nil, false
	}
	return a.items[a.order[len(a.order)-1]], true
}
