package client

// pendingTable 关联令牌到回复槽的映射
//
// 只由 EventLoop 的 goroutine 访问，无需加锁。
// 条目在引擎签发令牌时插入，在匹配的完成事件到达时恰好移除一次。
type pendingTable[K comparable, T any] struct {
	entries map[K]replySlot[T]
}

func newPendingTable[K comparable, T any]() *pendingTable[K, T] {
	return &pendingTable[K, T]{entries: make(map[K]replySlot[T])}
}

// insert 登记令牌；令牌已存在时返回 false 且不覆盖原条目
func (t *pendingTable[K, T]) insert(id K, slot replySlot[T]) bool {
	if _, dup := t.entries[id]; dup {
		return false
	}
	t.entries[id] = slot
	return true
}

// take 取出并移除令牌对应的回复槽
func (t *pendingTable[K, T]) take(id K) (replySlot[T], bool) {
	slot, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return slot, ok
}

// abandonAll 放弃所有条目，返回放弃数量
func (t *pendingTable[K, T]) abandonAll() int {
	n := len(t.entries)
	for id, slot := range t.entries {
		slot.abandon()
		delete(t.entries, id)
	}
	return n
}

func (t *pendingTable[K, T]) len() int {
	return len(t.entries)
}
