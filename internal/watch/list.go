package watch

import "github.com/silverlang/sildbg/internal/trace"

// Item is one registered watch expression.
type Item struct {
	ID   int    `json:"id"`
	Expr string `json:"expr"`
}

// Value is the evaluation of one watch item at a step. Err carries the
// evaluation failure as data; a failing watch never fails the command.
type Value struct {
	ID    int    `json:"id"`
	Expr  string `json:"expr"`
	Value string `json:"value,omitempty"`
	Err   string `json:"error,omitempty"`
}

// List holds the session's watch expressions in registration order.
type List struct {
	nextID int
	items  []Item
}

// Add validates and registers a watch expression, returning its item.
func (l *List) Add(cond string) (Item, error) {
	if err := Validate(cond); err != nil {
		return Item{}, err
	}
	l.nextID++
	item := Item{ID: l.nextID, Expr: cond}
	l.items = append(l.items, item)
	return item, nil
}

// Remove deletes the watch with the given id, reporting whether it existed.
func (l *List) Remove(id int) bool {
	for i, item := range l.items {
		if item.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the registered watches in order.
func (l *List) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// EvalAll evaluates every watch against the step's variables.
func (l *List) EvalAll(step *trace.Step) []Value {
	out := make([]Value, 0, len(l.items))
	for _, item := range l.items {
		val := Value{ID: item.ID, Expr: item.Expr}
		rendered, err := Eval(item.Expr, step)
		if err != nil {
			val.Err = err.Error()
		} else {
			val.Value = rendered
		}
		out = append(out, val)
	}
	return out
}
