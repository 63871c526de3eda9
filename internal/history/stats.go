// Package history loads past orders and summarises them per year.
package history

import (
	"math"
	"sort"
	"time"

	"eatsdash/internal/models"
)

const topRestaurants = 3

// Build keeps the orders completed in year, newest first, and computes their
// statistics.
func Build(orders []models.PastOrder, year int) models.OrderHistory {
	kept := make([]models.PastOrder, 0, len(orders))
	for _, o := range orders {
		if o.CompletedAt.IsZero() || o.CompletedAt.Year() == year {
			kept = append(kept, o)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CompletedAt.After(kept[j].CompletedAt)
	})
	stats := ComputeStatistics(kept, year)
	return models.OrderHistory{Orders: kept, Statistics: &stats}
}

// ComputeStatistics totals the non-cancelled orders and ranks restaurants by
// order count, ties kept in first-seen order.
func ComputeStatistics(orders []models.PastOrder, year int) models.Statistics {
	stats := models.Statistics{Year: year, TopRestaurants: []models.RestaurantStat{}}

	byStore := map[string]int{}
	var ranked []models.RestaurantStat
	for _, o := range orders {
		if o.IsCancelled {
			continue
		}
		stats.TotalOrders++
		stats.TotalSpent += o.Total
		stats.TotalDeliveryFees += o.DeliveryFee

		if o.StoreUUID == "" {
			continue
		}
		idx, ok := byStore[o.StoreUUID]
		if !ok {
			name := o.RestaurantName
			if name == "" {
				name = models.Unknown
			}
			idx = len(ranked)
			byStore[o.StoreUUID] = idx
			ranked = append(ranked, models.RestaurantStat{Name: name})
		}
		ranked[idx].OrderCount++
		ranked[idx].TotalSpent += o.Total
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OrderCount > ranked[j].OrderCount
	})
	if len(ranked) > topRestaurants {
		ranked = ranked[:topRestaurants]
	}
	for i := range ranked {
		ranked[i].TotalSpent = cents(ranked[i].TotalSpent)
	}
	stats.TopRestaurants = append(stats.TopRestaurants, ranked...)
	stats.TotalSpent = cents(stats.TotalSpent)
	stats.TotalDeliveryFees = cents(stats.TotalDeliveryFees)
	return stats
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CurrentYear is the calendar year of now in loc, UTC when loc is nil.
func CurrentYear(now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Year()
}
