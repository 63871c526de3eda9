package status

import (
	"strings"

	"eatsdash/internal/geo"
	"eatsdash/internal/models"
)

const (
	LabelNoActiveOrder  = models.NoActiveOrder
	LabelPreparingOrder = "Preparing order"
	LabelArrived        = "Arrived"
	LabelArriving       = "Arriving"
	LabelEmpty          = "—"

	// Driver distances from home, inclusive, that override the reported stage.
	ArrivedWithinFeet  = 300
	ArrivingWithinFeet = 1000
)

// Stages is the progress bar order. Index into it with Result.Stage.
var Stages = []string{"preparing", "picked up", "en route", "arriving"}

var stageLabels = map[string]string{
	"preparing": "Preparing",
	"picked up": "Picked up",
	"en route":  "En route",
	"arriving":  "Arriving",
	"delivered": "Delivered",
	"complete":  "Complete",
}

type Result struct {
	Label string
	// Stage is only meaningful when HasStage is set.
	Stage    int
	HasStage bool

	DistanceFeet float64
	HasDistance  bool

	// Badge is the card header: connection error wins over activity.
	Badge string
}

// Synthesize derives the display status for order. A nil order means the
// account has nothing in flight. It never fails: unknown input degrades to
// the raw stage token or "—".
func Synthesize(order *models.OrderSnapshot, conn models.ConnectionStatus, home *models.Coordinate) Result {
	res := Result{Badge: badge(order != nil, conn)}

	if order == nil {
		res.Label = LabelNoActiveOrder
		return res
	}

	res.Stage, res.HasStage = 0, true
	if !order.HasDriver() {
		res.Label = LabelPreparingOrder
		return res
	}
	res.Stage = StageIndex(order.OrderStage)

	if d, ok := geo.DistanceFeet(order.DriverLocation.Coordinate(), home); ok {
		res.DistanceFeet, res.HasDistance = d, true
		switch {
		case d <= ArrivedWithinFeet:
			res.Label = LabelArrived
			return res
		case d <= ArrivingWithinFeet:
			res.Label = LabelArriving
			return res
		}
	}

	res.Label = StageLabel(order.OrderStage)
	return res
}

// ForAccount synthesizes the status of the account's first order.
func ForAccount(acc models.AccountSnapshot, home *models.Coordinate) Result {
	if !acc.Active && len(acc.Orders) == 0 {
		return Synthesize(nil, acc.ConnectionStatus, home)
	}
	return Synthesize(acc.PrimaryOrder(), acc.ConnectionStatus, home)
}

// StageLabel maps a raw stage token to its display form.
func StageLabel(token string) string {
	if label, ok := stageLabels[strings.ToLower(strings.TrimSpace(token))]; ok {
		return label
	}
	if token == "" {
		return LabelEmpty
	}
	return token
}

// StageIndex finds the first fixed stage contained in token, 0 when none is.
func StageIndex(token string) int {
	t := strings.ToLower(token)
	for i, s := range Stages {
		if strings.Contains(t, s) {
			return i
		}
	}
	return 0
}

func badge(active bool, conn models.ConnectionStatus) string {
	if conn == models.ConnectionError {
		return "Error"
	}
	if active {
		return "Active Order"
	}
	return models.NoActiveOrder
}
