package split

import (
	"fmt"

	"github.com/google/uuid"
)

const localKeyPrefix = "local-item-"

// KeyMap assigns every line item a stable string key for the lifetime of one
// receipt session. Keys come from the server-issued item id when present and
// fall back to the item's decode position. Build it once per receipt load and
// reuse it; re-deriving from a later decode of equal-looking items defeats
// the point, because item values are not reference-stable across the
// transport boundary.
type KeyMap struct {
	byIndex map[int]string
	ordered []string
}

// BuildKeys derives the stable key for every item. An empty item list yields
// an empty map; that is not an error.
func BuildKeys(items []LineItem) KeyMap {
	m := KeyMap{byIndex: make(map[int]string, len(items))}
	for i, item := range items {
		key := item.BackendItemID
		if key == "" {
			key = fmt.Sprintf("%s%d", localKeyPrefix, i)
		}
		m.byIndex[i] = key
		m.ordered = append(m.ordered, key)
	}
	return m
}

// ForIndex returns the key for the item at the given decode position.
func (m KeyMap) ForIndex(i int) (string, bool) {
	key, ok := m.byIndex[i]
	return key, ok
}

// ForItem resolves the key for an item. If the item cannot be located by its
// source index, the lookup falls back to the backend id and finally to a
// session-unique key. Reaching the last fallback signals a caller bug, but it
// must not crash or collide with a real key.
func (m KeyMap) ForItem(item LineItem) string {
	if key, ok := m.byIndex[item.SourceIndex]; ok {
		return key
	}
	if item.BackendItemID != "" {
		return item.BackendItemID
	}
	return "orphan-item-" + uuid.NewString()
}

// Keys returns the keys in decode order.
func (m KeyMap) Keys() []string {
	keys := make([]string, len(m.ordered))
	copy(keys, m.ordered)
	return keys
}

// Len reports how many items were keyed.
func (m KeyMap) Len() int {
	return len(m.ordered)
}
