package commit

// State is the state of a Scope
type State int

// State values
const (
	Open      State = iota
	Committed       // outermost scope closed successfully, callables ran
	Joined          // nested scope closed successfully, callables moved to the parent
	Discarded       // scope failed, callables dropped
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Committed:
		return "committed"
	case Joined:
		return "joined"
	case Discarded:
		return "discarded"
	default:
		return "invalid"
	}
}

// queue is an ordered list of callables, unique ones joined by identity
type queue struct {
	items  []Callable
	unique map[identity]Unique
}

func (q *queue) add(c Callable) {
	if u, ok := c.(Unique); ok {
		id := identityOf(u)
		if prev, ok := q.unique[id]; ok {
			prev.Join(u)
			return
		}
		if q.unique == nil {
			q.unique = map[identity]Unique{}
		}
		q.unique[id] = u
	}
	q.items = append(q.items, c)
}

func (q *queue) merge(child *queue) {
	for _, c := range child.items {
		q.add(c)
	}
}

func (q *queue) take() []Callable {
	items := q.items
	*q = queue{}
	return items
}

// Scope is one nesting level of a transactional block
type Scope struct {
	state     State
	onSuccess queue
	preCommit queue
}

// State returns the state of the scope
func (s *Scope) State() State {
	return s.state
}

// Len returns the number of callables registered in the scope
func (s *Scope) Len() int {
	return len(s.onSuccess.items) + len(s.preCommit.items)
}

// Stack is the stack of scopes of one connection, innermost last
type Stack struct {
	scopes []*Scope
}

// Depth returns the number of open scopes
func (s *Stack) Depth() int {
	return len(s.scopes)
}

func (s *Stack) top() *Scope {
	return s.scopes[len(s.scopes)-1]
}
