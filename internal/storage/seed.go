package storage

import (
	"fmt"
	"os"

	"eatsdash/internal/models"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Fixtures is the YAML seed file layout used to populate a fresh store.
type Fixtures struct {
	Accounts    []FixtureAccount   `yaml:"accounts"`
	Engines     []models.EntityRef `yaml:"engines"`
	Devices     []models.EntityRef `yaml:"devices"`
	Automations []models.EntityRef `yaml:"automations"`
}

type FixtureAccount struct {
	EntryID    string              `yaml:"entry_id"`
	Name       string              `yaml:"name"`
	TimeZone   string              `yaml:"time_zone"`
	Connection string              `yaml:"connection_status"`
	PictureURL string              `yaml:"picture_url"`
	Profile    *models.UserProfile `yaml:"profile"`
	Orders     []FixtureOrder      `yaml:"orders"`
	PastOrders []models.PastOrder  `yaml:"past_orders"`
}

type FixtureOrder struct {
	OrderID     string   `yaml:"order_id"`
	Restaurant  string   `yaml:"restaurant"`
	Stage       string   `yaml:"stage"`
	Status      string   `yaml:"status"`
	Driver      string   `yaml:"driver"`
	DriverPhone string   `yaml:"driver_phone"`
	ETA         string   `yaml:"eta"`
	Minutes     *int     `yaml:"minutes_remaining"`
	Lat         *float64 `yaml:"lat"`
	Lon         *float64 `yaml:"lon"`
	Street      string   `yaml:"street"`
	Suburb      string   `yaml:"suburb"`
}

func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

// Seed writes the fixtures into the store. Accounts without an entry id get a
// fresh one. It returns the ids in fixture order.
func (s *Store) Seed(f *Fixtures) ([]string, error) {
	if f == nil {
		return nil, nil
	}
	if err := s.SaveEntities(models.EntityCatalog{Engines: nonNil(f.Engines), Devices: nonNil(f.Devices)}); err != nil {
		return nil, err
	}
	if err := s.SaveAutomations(nonNil(f.Automations)); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(f.Accounts))
	for _, fa := range f.Accounts {
		acc := fa.snapshot()
		if acc.EntryID == "" {
			acc.EntryID = uuid.NewString()
		}
		if err := s.SaveAccount(acc); err != nil {
			return nil, fmt.Errorf("failed to seed account %q: %w", fa.Name, err)
		}
		if fa.Profile != nil {
			if err := s.SaveProfile(acc.EntryID, *fa.Profile); err != nil {
				return nil, err
			}
		}
		if len(fa.PastOrders) > 0 {
			if err := s.SavePastOrders(acc.EntryID, fa.PastOrders); err != nil {
				return nil, err
			}
		}
		ids = append(ids, acc.EntryID)
	}
	return ids, nil
}

func (fa FixtureAccount) snapshot() models.AccountSnapshot {
	conn := models.ConnectionStatus(fa.Connection)
	if conn == "" {
		conn = models.ConnectionConnected
	}
	tz := fa.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	acc := models.AccountSnapshot{
		EntryID:          fa.EntryID,
		AccountName:      fa.Name,
		TimeZone:         tz,
		ConnectionStatus: conn,
		UserPictureURL:   fa.PictureURL,
		Orders:           []models.OrderSnapshot{},
	}
	for _, fo := range fa.Orders {
		o := models.OrderSnapshot{
			OrderID:          fo.OrderID,
			RestaurantName:   fo.Restaurant,
			OrderStage:       fo.Stage,
			OrderStatus:      fo.Status,
			DriverName:       fo.Driver,
			DriverPhone:      fo.DriverPhone,
			DriverETA:        fo.ETA,
			MinutesRemaining: fo.Minutes,
		}
		if o.DriverName == "" {
			o.DriverName = models.NoDriverAssigned
		}
		if fo.Lat != nil || fo.Lon != nil || fo.Street != "" {
			o.DriverLocation = &models.Location{Lat: fo.Lat, Lon: fo.Lon, Street: fo.Street, Suburb: fo.Suburb}
		}
		acc.Orders = append(acc.Orders, o)
	}
	return acc.WithPrimaryFields()
}

func nonNil(refs []models.EntityRef) []models.EntityRef {
	if refs == nil {
		return []models.EntityRef{}
	}
	return refs
}
