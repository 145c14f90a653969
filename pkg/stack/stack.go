package stack

// Stack is a LIFO stack backed by a preallocated slice. l is the index one
// past the top element.
type Stack[T any] struct {
	a []T
	l int
}

// NewStack creates a new stack with room for size elements before it grows
func NewStack[T any](size int, elm ...T) *Stack[T] {
	if size < len(elm) {
		size = len(elm)
	}

	stack := Stack[T]{
		a: make([]T, size),
		l: 0,
	}

	for _, e := range elm {
		stack.Push(e)
	}

	return &stack
}

// Push adds an element to the top of the stack
func (s *Stack[T]) Push(elm T) {
	if s.l >= len(s.a) {
		s.grow()
	}

	s.a[s.l] = elm
	s.l++
}

// Pop removes and returns the top element of the stack. ok is false when the
// stack is empty.
func (s *Stack[T]) Pop() (elm T, ok bool) {
	if s.l < 1 {
		return elm, false
	}

	s.l--
	elm = s.a[s.l]

	var zero T
	s.a[s.l] = zero // release the reference

	return elm, true
}

// Peek returns the top element of the stack without removing it
func (s *Stack[T]) Peek() (elm T, ok bool) {
	if s.l < 1 {
		return elm, false
	}

	return s.a[s.l-1], true
}

// Size returns the number of elements on the stack
func (s *Stack[T]) Size() int {
	return s.l
}

// Cap returns the number of elements the stack holds before growing
func (s *Stack[T]) Cap() int {
	return len(s.a)
}

// Array returns the live elements, bottom first
func (s *Stack[T]) Array() []T {
	return s.a[:s.l]
}

func (s *Stack[T]) grow() {
	n := len(s.a) * 2
	if n == 0 {
		n = 8
	}

	a := make([]T, n)
	copy(a, s.a)
	s.a = a
}
