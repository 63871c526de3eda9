package tui

import (
	"fmt"
	"strings"

	"eatsdash/internal/models"
	"eatsdash/internal/status"

	"github.com/charmbracelet/lipgloss"
)

// ordersOf lists the orders to draw one card each for. Backends that only
// fill the flat fields yield a single order while active.
func ordersOf(acc models.AccountSnapshot) []models.OrderSnapshot {
	if len(acc.Orders) > 0 {
		return acc.Orders
	}
	if p := acc.PrimaryOrder(); p != nil {
		return []models.OrderSnapshot{*p}
	}
	return nil
}

func renderAccountHeader(acc models.AccountSnapshot, home *models.Coordinate) string {
	res := status.ForAccount(acc, home)
	name := acc.AccountName
	if name == "" {
		name = acc.EntryID
	}
	header := initialStyle.Render(status.Initial(name)) + " " +
		lipgloss.NewStyle().Bold(true).Render(name) + "  " +
		badgeStyle(res.Badge).Render(res.Badge)
	if conn := connectionText(acc.ConnectionStatus); conn != "" {
		header += "  " + conn
	}
	return header
}

func connectionText(c models.ConnectionStatus) string {
	switch c {
	case models.ConnectionError:
		return errorStyle.Render("● disconnected")
	case models.ConnectionRetrying:
		return warningStyle.Render("● retrying")
	case models.ConnectionConnected:
		return successStyle.Render("●")
	}
	return mutedStyle.Render("○")
}

func renderAccountCards(acc models.AccountSnapshot, home *models.Coordinate, selected bool) string {
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	orders := ordersOf(acc)
	if len(orders) == 0 {
		return style.Render(renderNoOrder(acc, home))
	}
	cards := make([]string, 0, len(orders))
	for i, o := range orders {
		cards = append(cards, style.Render(renderOrder(o, i, acc.ConnectionStatus, home)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func renderNoOrder(acc models.AccountSnapshot, home *models.Coordinate) string {
	res := status.Synthesize(nil, acc.ConnectionStatus, home)
	lines := []string{
		mutedStyle.Render(res.Label),
		"Map: " + status.MapLabel(nil) + mapHint(status.MapCenter(nil, home)),
	}
	return strings.Join(lines, "\n")
}

func renderOrder(o models.OrderSnapshot, index int, conn models.ConnectionStatus, home *models.Coordinate) string {
	res := status.Synthesize(&o, conn, home)

	restaurant := strings.TrimSpace(o.RestaurantName)
	if restaurant == "" {
		restaurant = status.LabelEmpty
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(restaurant))
	lines = append(lines, labelStyle(res.Label).Render(res.Label))
	if res.HasStage {
		lines = append(lines, stageBar(res.Stage))
	}
	lines = append(lines, mutedStyle.Render(status.TimelineText(o, index)))
	lines = append(lines, "ETA: "+status.ETAText(o.DriverETA)+minutesText(o.MinutesRemaining))
	if o.HasDriver() {
		driver := "Driver: " + o.DriverName
		if o.DriverPhone != "" {
			driver += " · " + status.FormatPhone(o.DriverPhone)
		}
		lines = append(lines, driver)
	}
	if res.HasDistance {
		lines = append(lines, fmt.Sprintf("Distance: %.0f ft", res.DistanceFeet))
	}
	if o.DriverLocation != nil && o.DriverLocation.Street != "" && o.HasDriver() {
		lines = append(lines, mutedStyle.Render("Near "+o.DriverLocation.Street))
	}
	lines = append(lines, "Map: "+status.MapLabel(&o)+mapHint(status.MapCenter(&o, home)))
	return strings.Join(lines, "\n")
}

func labelStyle(label string) lipgloss.Style {
	switch label {
	case status.LabelArrived:
		return successStyle.Bold(true)
	case status.LabelArriving:
		return warningStyle.Bold(true)
	}
	return normalStyle.Padding(0)
}

func stageBar(stage int) string {
	parts := make([]string, len(status.Stages))
	for i := range status.Stages {
		if i <= stage {
			parts[i] = stageDoneStyle.Render("●")
		} else {
			parts[i] = stageTodoStyle.Render("○")
		}
	}
	return strings.Join(parts, mutedStyle.Render("──"))
}

func minutesText(m *int) string {
	if m == nil {
		return ""
	}
	if *m == 1 {
		return " (1 minute)"
	}
	return fmt.Sprintf(" (%d minutes)", *m)
}

func mapHint(c *models.Coordinate) string {
	if c == nil {
		return ""
	}
	return mutedStyle.Render(fmt.Sprintf(" (%.4f, %.4f)", c.Lat, c.Lon))
}
