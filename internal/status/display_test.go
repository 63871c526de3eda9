package status

import (
	"strings"
	"testing"

	"eatsdash/internal/models"
)

func TestMapLabel(t *testing.T) {
	if got := MapLabel(&models.OrderSnapshot{DriverName: "No Driver Assigned"}); got != MapLabelHome {
		t.Errorf("MapLabel = %q, want Home", got)
	}
	if got := MapLabel(&models.OrderSnapshot{DriverName: "Ana"}); got != MapLabelDriver {
		t.Errorf("MapLabel = %q, want Driver", got)
	}
	if got := MapLabel(nil); got != MapLabelHome {
		t.Errorf("MapLabel(nil) = %q, want Home", got)
	}
}

func TestMapCenterFallsBackToHome(t *testing.T) {
	order := &models.OrderSnapshot{DriverName: "Ana"}
	if got := MapCenter(order, home); got != home {
		t.Errorf("MapCenter without driver fix should be home, got %v", got)
	}
	order.DriverLocation = at(41, -74)
	if got := MapCenter(order, home); got == nil || got.Lat != 41 {
		t.Errorf("MapCenter = %v, want driver position", got)
	}
}

func TestTimelineText(t *testing.T) {
	if got := TimelineText(models.OrderSnapshot{OrderStatus: "Heading your way"}, 0); got != "Heading your way" {
		t.Errorf("got %q", got)
	}
	if got := TimelineText(models.OrderSnapshot{OrderStatus: "Unknown"}, 1); got != "Order 2" {
		t.Errorf("got %q, want Order 2", got)
	}
	if got := TimelineText(models.OrderSnapshot{OrderStatusDescription: "Almost there"}, 0); got != "Almost there" {
		t.Errorf("got %q", got)
	}
}

func TestETAText(t *testing.T) {
	for _, in := range []string{"", "No ETA", "No ETA Available"} {
		if got := ETAText(in); got != "—" {
			t.Errorf("ETAText(%q) = %q, want —", in, got)
		}
	}
	if got := ETAText("7:45 PM"); got != "7:45 PM" {
		t.Errorf("got %q", got)
	}
}

func TestFormatPhone(t *testing.T) {
	tests := map[string]string{
		"5551234567":      "(555) 123-4567",
		"+1 555 123 4567": "(555) 123-4567",
		"12345":           "12345",
		"":                "",
	}
	for in, want := range tests {
		if got := FormatPhone(in); got != want {
			t.Errorf("FormatPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitial(t *testing.T) {
	if got := Initial("élise"); got != "É" {
		t.Errorf("got %q", got)
	}
	if got := Initial(""); got != "?" {
		t.Errorf("got %q", got)
	}
}

func TestMapURL(t *testing.T) {
	if got := MapURL(nil, 0.001); got != "" {
		t.Errorf("expected empty URL, got %q", got)
	}
	url := MapURL(&models.Coordinate{Lat: 40, Lon: -73}, 0.001)
	if !strings.Contains(url, "marker=40%2C-73") {
		t.Errorf("unexpected URL %q", url)
	}
}
