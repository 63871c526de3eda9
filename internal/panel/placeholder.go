package panel

import (
	"eatsdash/internal/models"
)

const (
	LoadingName = "Loading…"
	Dash        = "—"
)

// Placeholder builds the provisional detail record shown while the real one
// is being fetched. Known list fields are copied; nothing else is invented.
func Placeholder(list models.AccountList, entryID string, home *models.Coordinate) models.AccountDetail {
	if acc, ok := list.Find(entryID); ok {
		assigned := models.DriverAssigned(acc.DriverName)
		if o := acc.PrimaryOrder(); o != nil {
			assigned = o.HasDriver()
		}
		return models.AccountDetail{
			AccountSnapshot:        acc,
			TrackingActive:         acc.Active && assigned,
			DriverAssigned:         assigned,
			OrderStatusDescription: acc.OrderStatus,
			HomeLocation:           home,
		}
	}

	d := models.AccountDetail{
		AccountSnapshot: models.AccountSnapshot{
			EntryID:          entryID,
			AccountName:      LoadingName,
			TimeZone:         "UTC",
			ConnectionStatus: models.ConnectionUnknown,
			OrderStage:       models.NoActiveOrder,
			OrderStatus:      models.NoActiveOrder,
			RestaurantName:   Dash,
			DriverName:       models.NoDriverAssigned,
			DriverETA:        models.NoETA,
			OrderID:          Dash,
			LatestArrival:    Dash,
		},
		OrderStatusDescription: models.NoActiveOrder,
		HomeLocation:           home,
	}
	if home != nil {
		lat, lon := home.Lat, home.Lon
		d.DriverLocation = &models.Location{Lat: &lat, Lon: &lon, Street: Dash, Suburb: Dash, Address: Dash}
	}
	return d
}
