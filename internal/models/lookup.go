package models

import (
	"fmt"
	"sort"
)

// Lookup maps ids to display names
type Lookup map[int]string

// Name returns the display name for id, or "#<id>" when unknown
func (l Lookup) Name(id int) string {
	if name, ok := l[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// Has reports whether id is known
func (l Lookup) Has(id int) bool {
	_, ok := l[id]
	return ok
}

// IDs returns the known ids in ascending order
func (l Lookup) IDs() []int {
	ids := make([]int, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ChatTypeLookup builds a lookup from chat types
func ChatTypeLookup(types []ChatType) Lookup {
	l := make(Lookup, len(types))
	for _, t := range types {
		l[t.ID] = t.Name
	}
	return l
}

// ChatStatusLookup builds a lookup from chat statuses
func ChatStatusLookup(statuses []ChatStatus) Lookup {
	l := make(Lookup, len(statuses))
	for _, s := range statuses {
		l[s.ID] = s.Name
	}
	return l
}

// BotLookup builds a lookup from bots
func BotLookup(bots []Bot) Lookup {
	l := make(Lookup, len(bots))
	for _, b := range bots {
		l[b.ID] = b.Name
	}
	return l
}

// FilterChats drops chats whose type or status is not in the lookups
func FilterChats(chats []Chat, types, statuses Lookup) []Chat {
	out := make([]Chat, 0, len(chats))
	for _, c := range chats {
		if !types.Has(c.TypeID) || !statuses.Has(c.StatusID) {
			continue
		}
		out = append(out, c)
	}
	return out
}
