package event

import (
	"reflect"
)

// Queue holds the transient messages of a single step, keyed by message type.
// Messages posted during step N are visible to every later system of step N
// and are dropped by Clear before step N+1 begins. Accessed only from the
// goroutine executing the step; no locks.
type Queue struct {
	byType map[reflect.Type][]any
	order  []reflect.Type
}

func NewQueue() *Queue {
	return &Queue{
		byType: make(map[reflect.Type][]any),
	}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Post appends a message of type T.
func Post[T any](q *Queue, msg T) {
	t := typeKey[T]()
	if _, ok := q.byType[t]; !ok {
		q.order = append(q.order, t)
	}
	q.byType[t] = append(q.byType[t], msg)
}

// Peek returns the pending messages of type T without consuming them.
func Peek[T any](q *Queue) []T {
	raw := q.byType[typeKey[T]()]
	out := make([]T, len(raw))
	for i, m := range raw {
		out[i] = m.(T)
	}
	return out
}

// Drain returns the pending messages of type T in posting order and removes them.
func Drain[T any](q *Queue) []T {
	out := Peek[T](q)
	t := typeKey[T]()
	if raw, ok := q.byType[t]; ok {
		q.byType[t] = raw[:0]
	}
	return out
}

// Len returns the number of pending messages of type T.
func Len[T any](q *Queue) int {
	return len(q.byType[typeKey[T]()])
}

// Total returns the number of pending messages of all types.
func (q *Queue) Total() int {
	n := 0
	for _, t := range q.order {
		n += len(q.byType[t])
	}
	return n
}

// Clear drops every pending message, keeping the backing arrays.
func (q *Queue) Clear() {
	for _, t := range q.order {
		q.byType[t] = q.byType[t][:0]
	}
}
