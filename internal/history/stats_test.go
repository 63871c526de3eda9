package history

import (
	"testing"
	"time"

	"eatsdash/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 18, 0, 0, 0, time.UTC)
}

func TestComputeStatistics(t *testing.T) {
	orders := []models.PastOrder{
		{StoreUUID: "pho", RestaurantName: "Pho Corner", Total: 20.11, DeliveryFee: 1.99},
		{StoreUUID: "taco", RestaurantName: "Taco Stand", Total: 12, DeliveryFee: 2.49},
		{StoreUUID: "pho", RestaurantName: "Pho Corner", Total: 18.5, DeliveryFee: 1.99},
		{StoreUUID: "pizza", RestaurantName: "Pizza", Total: 30, DeliveryFee: 0},
		{StoreUUID: "sushi", RestaurantName: "Sushi", Total: 40, DeliveryFee: 3},
		{StoreUUID: "taco", RestaurantName: "Taco Stand", Total: 99, DeliveryFee: 9, IsCancelled: true},
		{RestaurantName: "No store", Total: 5},
	}
	s := ComputeStatistics(orders, 2026)

	if s.Year != 2026 || s.TotalOrders != 6 {
		t.Fatalf("stats = %+v", s)
	}
	if s.TotalSpent != 125.61 {
		t.Errorf("total spent = %v", s.TotalSpent)
	}
	if s.TotalDeliveryFees != 9.47 {
		t.Errorf("delivery fees = %v", s.TotalDeliveryFees)
	}
	if len(s.TopRestaurants) != 3 {
		t.Fatalf("top = %+v", s.TopRestaurants)
	}
	top := s.TopRestaurants
	if top[0].Name != "Pho Corner" || top[0].OrderCount != 2 || top[0].TotalSpent != 38.61 {
		t.Errorf("first = %+v", top[0])
	}
	if top[1].Name != "Taco Stand" || top[1].OrderCount != 1 {
		t.Errorf("cancelled order counted: %+v", top[1])
	}
	if top[2].Name != "Pizza" {
		t.Errorf("tie order not kept: %+v", top[2])
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	s := ComputeStatistics(nil, 2025)
	if s.TotalOrders != 0 || s.TopRestaurants == nil || len(s.TopRestaurants) != 0 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestBuildFiltersYearAndSorts(t *testing.T) {
	orders := []models.PastOrder{
		{OrderUUID: "old", CompletedAt: day(2025, 12, 31)},
		{OrderUUID: "mar", CompletedAt: day(2026, 3, 1)},
		{OrderUUID: "jun", CompletedAt: day(2026, 6, 1)},
	}
	h := Build(orders, 2026)
	if len(h.Orders) != 2 || h.Orders[0].OrderUUID != "jun" || h.Orders[1].OrderUUID != "mar" {
		t.Fatalf("orders = %+v", h.Orders)
	}
	if h.Statistics == nil || h.Statistics.TotalOrders != 2 || h.FromCache {
		t.Fatalf("history = %+v", h)
	}
}

func TestCurrentYear(t *testing.T) {
	now := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("no tz database")
	}
	if CurrentYear(now, ny) != 2025 || CurrentYear(now, nil) != 2026 {
		t.Fatal("year depends on location")
	}
}
