package natsadapter

import (
	"encoding/json"
	"testing"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
)

func TestPlannedSubject(t *testing.T) {
	if got := PlannedSubject("abc"); got != "instatrip.trips.planned.abc" {
		t.Errorf("unexpected subject %q", got)
	}
}

func TestDecodeTripRequested(t *testing.T) {
	data, err := json.Marshal(TripRequestedEvent{
		ID:      "trip-1",
		Request: domain.TripRequest{Start: "a", End: "b", Mode: domain.TravelDriving, Points: 4},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	event, err := DecodeTripRequested(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != "trip-1" || event.Request.Mode != domain.TravelDriving || event.Request.Points != 4 {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestDecodeTripRequested_Invalid(t *testing.T) {
	for _, body := range []string{`{`, `{"request": {"start": "a", "end": "b"}}`} {
		if _, err := DecodeTripRequested([]byte(body)); err == nil {
			t.Errorf("%s: expected an error", body)
		}
	}
}
