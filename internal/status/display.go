package status

import (
	"fmt"
	"strings"
	"unicode"

	"eatsdash/internal/models"
)

const (
	MapLabelDriver = "Driver"
	MapLabelHome   = "Home"
)

// MapLabel names what the card's map is centred on.
func MapLabel(order *models.OrderSnapshot) string {
	if order != nil && order.HasDriver() {
		return MapLabelDriver
	}
	return MapLabelHome
}

// MapCenter is the driver position when a driver is assigned and located,
// the home position otherwise. Nil when neither is known.
func MapCenter(order *models.OrderSnapshot, home *models.Coordinate) *models.Coordinate {
	if order != nil && order.HasDriver() {
		if c := order.DriverLocation.Coordinate(); c != nil {
			return c
		}
	}
	return home
}

// TimelineText is the order's own status line, or "Order N" when the backend
// has nothing useful to say.
func TimelineText(order models.OrderSnapshot, index int) string {
	text := strings.TrimSpace(order.OrderStatus)
	if text == "" {
		text = strings.TrimSpace(order.OrderStatusDescription)
	}
	if text == "" || text == models.Unknown || text == models.NoActiveOrder {
		return fmt.Sprintf("Order %d", index+1)
	}
	return text
}

func ETAText(eta string) string {
	switch strings.TrimSpace(eta) {
	case "", models.NoETA, models.NoETAAvailable:
		return LabelEmpty
	}
	return eta
}

// FormatPhone renders North American numbers as (XXX) XXX-XXXX.
func FormatPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	} else if len(d) != 10 {
		return phone
	}
	return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:])
}

func Initial(name string) string {
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// MapURL builds an OpenStreetMap embed URL around c. Empty when c is unknown
// or sits on a zero axis, which backends use as "no fix".
func MapURL(c *models.Coordinate, delta float64) string {
	if c == nil || c.Lat == 0 || c.Lon == 0 {
		return ""
	}
	return fmt.Sprintf(
		"https://www.openstreetmap.org/export/embed.html?bbox=%g%%2C%g%%2C%g%%2C%g&layer=mapnik&marker=%g%%2C%g",
		c.Lon-delta, c.Lat-delta, c.Lon+delta, c.Lat+delta, c.Lat, c.Lon,
	)
}
