package report

import (
	"cleanops/domain/state"

	"github.com/fundwit/go-commons/types"
)

// The builders never modify the given history in place: they return a fresh
// slice so a failed conditional write leaves the loaded record untouched.

func AppendUpdateEntry(h History, at types.Timestamp, by string, current state.State) History {
	return appendEntry(h, HistoryEntry{At: at, By: by, Type: HistoryTypeUpdate, FromState: current, ToState: current})
}

func AppendStateEntry(h History, at types.Timestamp, by string, from, to state.State, reason string) History {
	return appendEntry(h, HistoryEntry{At: at, By: by, Type: HistoryTypeState, FromState: from, ToState: to, Reason: reason})
}

func appendEntry(h History, entry HistoryEntry) History {
	next := make(History, 0, len(h)+1)
	next = append(next, h...)
	return append(next, entry)
}
