package cache

// node is an entry of a recency list. It carries its key so an evicted
// tail can be removed from the owning map.
type node[K comparable] struct {
	key        K
	prev, next *node[K]
}

// list orders keys by recency, most recent first. It is a ring around a
// sentinel, so no operation needs a nil check. Not safe for concurrent use.
type list[K comparable] struct {
	root node[K]
	len  int
}

func newList[K comparable]() *list[K] {
	l := &list[K]{}
	l.root.prev, l.root.next = &l.root, &l.root
	return l
}

func (l *list[K]) Len() int { return l.len }

// PushFront inserts key as the most recently used.
func (l *list[K]) PushFront(key K) *node[K] {
	n := &node[K]{key: key}
	l.insertFront(n)
	l.len++
	return n
}

// MoveToFront marks n as the most recently used.
func (l *list[K]) MoveToFront(n *node[K]) {
	if l.root.next == n {
		return
	}
	l.unlink(n)
	l.insertFront(n)
}

// Remove unlinks n.
func (l *list[K]) Remove(n *node[K]) {
	if n.next == nil {
		return
	}
	l.unlink(n)
	l.len--
}

// RemoveOldest unlinks the least recently used key.
func (l *list[K]) RemoveOldest() (K, bool) {
	if l.len == 0 {
		var zero K
		return zero, false
	}
	n := l.root.prev
	l.Remove(n)
	return n.key, true
}

func (l *list[K]) insertFront(n *node[K]) {
	n.prev, n.next = &l.root, l.root.next
	l.root.next.prev = n
	l.root.next = n
}

func (l *list[K]) unlink(n *node[K]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}
