package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	base := func() *Session {
		s := NewSession("sess-1", "train_main", "main_menu", t0)
		s.Append(OriginSystem, "Welcome", t0)
		s.Data["pnr"] = "2415319876"
		return s
	}

	t.Run("Initial Load (Old is Nil)", func(t *testing.T) {
		diff := Diff(nil, base())
		require.NotNil(t, diff)
		assert.Equal(t, "sess-1", diff.SessionID)
		require.NotNil(t, diff.CurrentFlow)
		assert.Equal(t, "train_main", *diff.CurrentFlow)
		require.NotNil(t, diff.CurrentState)
		assert.Equal(t, "main_menu", *diff.CurrentState)
		require.NotNil(t, diff.History)
		assert.Len(t, diff.History.Appended, 1)
		require.Contains(t, diff.Data, "pnr")
		assert.Equal(t, "2415319876", *diff.Data["pnr"])
		assert.Nil(t, diff.Ended)
	})

	t.Run("No Changes", func(t *testing.T) {
		assert.Nil(t, Diff(base(), base()))
	})

	t.Run("Flow Jump And Append", func(t *testing.T) {
		old := base()
		next := old.Clone()
		next.CurrentFlow = "booking"
		next.CurrentState = "ask_train"
		next.Append(OriginUser, "1", t0.Add(time.Second))

		diff := Diff(old, next)
		require.NotNil(t, diff)
		assert.Equal(t, "booking", *diff.CurrentFlow)
		assert.Equal(t, "ask_train", *diff.CurrentState)
		require.NotNil(t, diff.History)
		assert.Equal(t, []Exchange{next.History[1]}, diff.History.Appended)
		assert.Nil(t, diff.Data)
	})

	t.Run("Data Modified And Deleted", func(t *testing.T) {
		old := base()
		old.Data["date"] = "today"
		next := old.Clone()
		next.Data["pnr"] = "1111111111"
		delete(next.Data, "date")

		diff := Diff(old, next)
		require.NotNil(t, diff)
		assert.Equal(t, "1111111111", *diff.Data["pnr"])
		v, ok := diff.Data["date"]
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("Ended", func(t *testing.T) {
		old := base()
		next := old.Clone()
		next.End(t0.Add(time.Minute))

		diff := Diff(old, next)
		require.NotNil(t, diff)
		require.NotNil(t, diff.Ended)
		assert.True(t, *diff.Ended)
	})
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Data Omitted", func(t *testing.T) {
		s1 := NewSession("s", "f", "a", time.Now())
		s2 := s1.Clone()
		s2.CurrentState = "b"
		bytes, err := json.Marshal(Diff(s1, s2))
		require.NoError(t, err)
		assert.NotContains(t, string(bytes), `"data"`)
	})

	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := NewSession("s", "f", "a", time.Now())
		s1.Data["a"] = "1"
		s1.Data["b"] = "2"
		s2 := s1.Clone()
		delete(s2.Data, "b")

		bytes, err := json.Marshal(Diff(s1, s2))
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(bytes), `"b":null`), string(bytes))
	})
}
