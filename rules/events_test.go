package rules

import (
	"testing"

	"github.com/nmurphy101/arena/grid"
	"github.com/stretchr/testify/require"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()
	var deaths, all []Event
	d.On(EventDeath, func(e Event) { deaths = append(deaths, e) })
	d.OnAll(func(e Event) { all = append(all, e) })

	d.Emit(Event{Kind: EventPickup})
	d.Emit(Event{Kind: EventDeath, Cause: DeathCauseWallCollision})

	require.Len(t, deaths, 1)
	require.Equal(t, DeathCauseWallCollision, deaths[0].Cause)
	require.Equal(t, []EventKind{EventPickup, EventDeath}, kinds(all))
}

func TestEventsCarryTheirTurn(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	w.placeSnake("p", true, grid.Point{X: 0, Y: 0}, DirUp)
	w.flush()
	events := collect(w)

	require.NoError(t, w.Tick(nil))
	require.Len(t, *events, 1)
	require.Equal(t, int64(1), (*events)[0].Turn)
	require.Equal(t, EventDeath, (*events)[0].Kind)
	require.Equal(t, *events, w.Frame().Events)
}
