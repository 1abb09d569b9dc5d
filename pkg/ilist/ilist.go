package ilist

// Linker is implemented by types that embed Entry.
type Linker interface {
	Next() Linker
	Prev() Linker
	SetNext(Linker)
	SetPrev(Linker)
}

// Entry is embedded into structs that participate in a List. The zero
// value is ready for use.
type Entry struct {
	next Linker
	prev Linker
}

func (e *Entry) Next() Linker {
	return e.next
}

func (e *Entry) Prev() Linker {
	return e.prev
}

func (e *Entry) SetNext(l Linker) {
	e.next = l
}

func (e *Entry) SetPrev(l Linker) {
	e.prev = l
}

// List is an intrusive doubly-linked list. It holds no locks of its
// own; callers synchronize.
type List struct {
	head Linker
	tail Linker
}

func (l *List) Empty() bool {
	return l.head == nil
}

func (l *List) Front() Linker {
	return l.head
}

func (l *List) Back() Linker {
	return l.tail
}

func (l *List) PushBack(e Linker) {
	e.SetNext(nil)
	e.SetPrev(l.tail)

	if l.tail != nil {
		l.tail.SetNext(e)
	} else {
		l.head = e
	}

	l.tail = e
}

func (l *List) PushFront(e Linker) {
	e.SetPrev(nil)
	e.SetNext(l.head)

	if l.head != nil {
		l.head.SetPrev(e)
	} else {
		l.tail = e
	}

	l.head = e
}

func (l *List) Remove(e Linker) {
	prev := e.Prev()
	next := e.Next()

	if prev != nil {
		prev.SetNext(next)
	} else if l.head == e {
		l.head = next
	}

	if next != nil {
		next.SetPrev(prev)
	} else if l.tail == e {
		l.tail = prev
	}

	e.SetNext(nil)
	e.SetPrev(nil)
}
