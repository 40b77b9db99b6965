package cs4teachers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time { return today.AddDate(0, 0, offset) }

// eventAt builds a single-day event offset days from today.
func eventAt(id int64, offset int) Event {
	return Event{ID: id, Name: "Event", StartDate: day(offset), EndDate: day(offset)}
}

func TestDaysDifference(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"upcoming", day(3), day(4), 3},
		{"starts today", day(0), day(2), 0},
		{"in progress", day(-2), day(2), 0},
		{"ends today", day(-3), day(0), 0},
		{"finished", day(-10), day(-5), -5},
		{"clock ignored", day(1).Add(23 * time.Hour), day(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysDifference(tt.start, tt.end, today))
		})
	}
}

func TestFindClosestEvent(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		wantID  int64
	}{
		{"prefers upcoming over past", []int{-5, 3, -1}, 2},
		{"most recent past", []int{-5, -1, -10}, 2},
		{"in progress wins", []int{4, 0, 1}, 2},
		{"nearest upcoming", []int{9, 2, 5}, 2},
		{"tie keeps first", []int{3, 3}, 1},
		{"single", []int{-30}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []Event
			for i, off := range tt.offsets {
				events = append(events, eventAt(int64(i+1), off))
			}
			got, ok := FindClosestEvent(events, today)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestFindClosestEventEmpty(t *testing.T) {
	_, ok := FindClosestEvent(nil, today)
	assert.False(t, ok)
}

func TestFindClosestEventMultiDay(t *testing.T) {
	running := Event{ID: 7, StartDate: day(-3), EndDate: day(3)}
	soon := eventAt(8, 1)
	got, ok := FindClosestEvent([]Event{soon, running}, today)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.ID)
}

func TestFindClosestEventReturnsMember(t *testing.T) {
	events := []Event{eventAt(1, -2), eventAt(2, 8), eventAt(3, -40), eventAt(4, 15)}
	got, ok := FindClosestEvent(events, today)
	require.True(t, ok)
	assert.Contains(t, events, got)
	assert.Equal(t, int64(2), got.ID)
}
