package notify

import (
	"fmt"
	"strings"

	"eatsdash/internal/models"
	"eatsdash/internal/settings"
)

type Event string

const (
	EventNewOrder       Event = "new_order"
	EventDriverAssigned Event = "driver_assigned"
	EventStatusChange   Event = "status_change"
	EventIntervalUpdate Event = "interval_update"
	EventTest           Event = "test"
)

// BuildMessage renders the spoken text for ev. It returns "" when the order
// carries nothing worth saying for that event.
func BuildMessage(prefix, user string, o models.OrderSnapshot, ev Event) string {
	if strings.TrimSpace(prefix) == "" {
		prefix = settings.DefaultMessagePrefix
	}
	restaurant := orDefault(o.RestaurantName, models.Unknown)
	driver := orDefault(o.DriverName, models.NoDriverAssigned)
	if user == "" {
		user = "you"
	}

	switch ev {
	case EventNewOrder:
		return fmt.Sprintf("%s, a new %s order received for %s.", prefix, restaurant, user)
	case EventDriverAssigned:
		return fmt.Sprintf("%s, %s, %s has been assigned to your %s order.", prefix, user, driver, restaurant)
	case EventStatusChange:
		text := strings.TrimSpace(o.OrderStatus)
		if text == "" {
			text = strings.TrimSpace(o.OrderStatusDescription)
		}
		if text == "" || text == models.Unknown || text == models.NoActiveOrder {
			return ""
		}
		return fmt.Sprintf("%s, regarding %s's %s order, %s.", prefix, user, restaurant, text)
	case EventIntervalUpdate:
		street, place := whereabouts(o.DriverLocation)
		eta := orDefault(o.DriverETA, "—")
		remaining := "—"
		if o.MinutesRemaining != nil {
			remaining = fmt.Sprintf("%d minutes", *o.MinutesRemaining)
		}
		return fmt.Sprintf("%s, %s was last seen near %s in %s, expected to arrive at %s in %s.", prefix, driver, street, place, eta, remaining)
	}
	return ""
}

func whereabouts(loc *models.Location) (street, place string) {
	street = "unknown street"
	place = "unknown area"
	if loc == nil {
		return street, place
	}
	if s := strings.TrimSpace(loc.Street); s != "" && s != models.NoDriverAssigned && s != models.Unknown {
		street = s
	}
	county := strings.TrimSpace(loc.County)
	suburb := strings.TrimSpace(loc.Suburb)
	// Within New York the county is a borough-sized name, so the suburb says more.
	first, second := county, suburb
	if strings.Contains(strings.ToLower(county), "new york") {
		first, second = suburb, county
	}
	switch {
	case first != "":
		place = first
	case second != "":
		place = second
	}
	return street, place
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
