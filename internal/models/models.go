package models

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	NoActiveOrder    = "No Active Order"
	NoDriverAssigned = "No Driver Assigned"
	NoRestaurant     = "No Restaurant"
	NoETA            = "No ETA"
	NoETAAvailable   = "No ETA Available"
	NoLatestArrival  = "No Latest Arrival"
	NoMapAvailable   = "No Map Available"
	Unknown          = "Unknown"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CoordinateFrom returns nil unless both halves are present.
func CoordinateFrom(lat, lon *float64) *Coordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &Coordinate{Lat: *lat, Lon: *lon}
}

type ConnectionStatus string

const (
	ConnectionConnected ConnectionStatus = "connected"
	ConnectionError     ConnectionStatus = "error"
	ConnectionRetrying  ConnectionStatus = "retrying"
	ConnectionUnknown   ConnectionStatus = "unknown"
)

// Location is a reverse-geocoded point. Lat and Lon are nil when the backend
// reported something that is not a number for either of them.
type Location struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Street  string   `json:"street,omitempty"`
	Suburb  string   `json:"suburb,omitempty"`
	Quarter string   `json:"quarter,omitempty"`
	County  string   `json:"county,omitempty"`
	Address string   `json:"address,omitempty"`
}

func (l *Location) Coordinate() *Coordinate {
	if l == nil {
		return nil
	}
	return CoordinateFrom(l.Lat, l.Lon)
}

func (l *Location) UnmarshalJSON(data []byte) error {
	type plain Location
	var raw struct {
		plain
		Lat json.RawMessage `json:"lat"`
		Lon json.RawMessage `json:"lon"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Location(raw.plain)
	l.Lat = looseFloat(raw.Lat)
	l.Lon = looseFloat(raw.Lon)
	return nil
}

func looseFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}

// DriverAssigned reports whether name identifies a real driver.
func DriverAssigned(name string) bool {
	switch strings.TrimSpace(name) {
	case "", NoDriverAssigned, Unknown:
		return false
	}
	return true
}

type OrderSnapshot struct {
	OrderID                string    `json:"order_id"`
	OrderUUID              string    `json:"order_uuid,omitempty"`
	RestaurantName         string    `json:"restaurant_name"`
	OrderStage             string    `json:"order_stage"`
	OrderStatus            string    `json:"order_status"`
	OrderStatusDescription string    `json:"order_status_description,omitempty"`
	DriverName             string    `json:"driver_name"`
	DriverPhone            string    `json:"driver_phone,omitempty"`
	DriverPictureURL       string    `json:"driver_picture_url,omitempty"`
	DriverLocation         *Location `json:"driver_location,omitempty"`
	DriverETA              string    `json:"driver_eta"`
	MinutesRemaining       *int      `json:"minutes_remaining"`
	LatestArrival          string    `json:"latest_arrival,omitempty"`
	UserPictureURL         string    `json:"user_picture_url,omitempty"`
}

func (o OrderSnapshot) HasDriver() bool {
	return DriverAssigned(o.DriverName)
}

// Key identifies the order across snapshots.
func (o OrderSnapshot) Key() string {
	if o.OrderUUID != "" {
		return o.OrderUUID
	}
	return o.OrderID
}

type AccountSnapshot struct {
	EntryID          string           `json:"entry_id"`
	AccountName      string           `json:"account_name"`
	TimeZone         string           `json:"time_zone"`
	Active           bool             `json:"active"`
	ConnectionStatus ConnectionStatus `json:"connection_status"`
	UserPictureURL   string           `json:"user_picture_url,omitempty"`
	Orders           []OrderSnapshot  `json:"orders"`

	// Flat copy of the first order, kept for single-order consumers.
	OrderStage       string    `json:"order_stage"`
	OrderStatus      string    `json:"order_status"`
	RestaurantName   string    `json:"restaurant_name"`
	DriverName       string    `json:"driver_name"`
	DriverETA        string    `json:"driver_eta"`
	MinutesRemaining *int      `json:"minutes_remaining"`
	OrderID          string    `json:"order_id"`
	LatestArrival    string    `json:"latest_arrival"`
	DriverLocation   *Location `json:"driver_location,omitempty"`
}

// PrimaryOrder returns the first order, falling back to the flat fields for
// backends that only report those. Nil when the account is idle.
func (a AccountSnapshot) PrimaryOrder() *OrderSnapshot {
	if len(a.Orders) > 0 {
		o := a.Orders[0]
		return &o
	}
	if !a.Active {
		return nil
	}
	return &OrderSnapshot{
		OrderID:          a.OrderID,
		RestaurantName:   a.RestaurantName,
		OrderStage:       a.OrderStage,
		OrderStatus:      a.OrderStatus,
		DriverName:       a.DriverName,
		DriverLocation:   a.DriverLocation,
		DriverETA:        a.DriverETA,
		MinutesRemaining: a.MinutesRemaining,
		LatestArrival:    a.LatestArrival,
	}
}

// WithPrimaryFields copies the first order into the flat fields.
func (a AccountSnapshot) WithPrimaryFields() AccountSnapshot {
	if len(a.Orders) == 0 {
		a.Active = false
		a.OrderStage = NoActiveOrder
		a.OrderStatus = NoActiveOrder
		a.RestaurantName = NoRestaurant
		a.DriverName = NoDriverAssigned
		a.DriverETA = NoETA
		a.MinutesRemaining = nil
		a.OrderID = NoActiveOrder
		a.LatestArrival = NoLatestArrival
		return a
	}
	first := a.Orders[0]
	a.Active = true
	a.OrderStage = first.OrderStage
	a.OrderStatus = first.OrderStatus
	a.RestaurantName = first.RestaurantName
	a.DriverName = first.DriverName
	a.DriverETA = first.DriverETA
	a.MinutesRemaining = first.MinutesRemaining
	a.OrderID = first.OrderID
	a.LatestArrival = first.LatestArrival
	a.DriverLocation = first.DriverLocation
	if a.UserPictureURL == "" {
		a.UserPictureURL = first.UserPictureURL
	}
	return a
}

type AccountList struct {
	Accounts []AccountSnapshot `json:"accounts"`
	Version  string            `json:"version"`
}

func (l AccountList) Find(entryID string) (AccountSnapshot, bool) {
	for _, a := range l.Accounts {
		if a.EntryID == entryID {
			return a, true
		}
	}
	return AccountSnapshot{}, false
}

type AccountDetail struct {
	AccountSnapshot
	TrackingActive         bool        `json:"tracking_active"`
	DriverAssigned         bool        `json:"driver_assigned"`
	OrderStatusDescription string      `json:"order_status_description"`
	HomeLocation           *Coordinate `json:"home_location"`
	MapURL                 string      `json:"map_url"`
}

type DeviceOverride struct {
	EngineID string `json:"tts_entity_id,omitempty"`
	Cache    *bool  `json:"cache,omitempty"`
	// Language is nil when never set and "" when explicitly cleared.
	Language *string `json:"language,omitempty"`
	// Options is nil when never set and empty when explicitly cleared.
	Options map[string]any `json:"options"`
}

type NotificationSettings struct {
	Enabled               bool                      `json:"tts_enabled"`
	EngineID              string                    `json:"tts_entity_id"`
	Devices               []string                  `json:"tts_media_players"`
	MessagePrefix         string                    `json:"tts_message_prefix"`
	Volume                float64                   `json:"tts_volume"`
	DeviceVolumes         map[string]float64        `json:"tts_media_player_volumes"`
	DeviceOverrides       map[string]DeviceOverride `json:"tts_media_player_settings"`
	Cache                 bool                      `json:"tts_cache"`
	Language              string                    `json:"tts_language"`
	Options               map[string]any            `json:"tts_options"`
	IntervalEnabled       bool                      `json:"tts_interval_enabled"`
	IntervalMinutes       int                       `json:"tts_interval_minutes"`
	ProximityEnabled      bool                      `json:"driver_nearby_automation_enabled"`
	ProximityAutomation   string                    `json:"driver_nearby_automation_entity"`
	ProximityDistanceFeet int                       `json:"driver_nearby_distance_feet"`
}

type EntityRef struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	Name     string `json:"name" yaml:"name"`
}

func (e EntityRef) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.EntityID
}

type EntityCatalog struct {
	Engines []EntityRef `json:"tts_entities"`
	Devices []EntityRef `json:"media_player_entities"`
}

type AutomationList struct {
	Automations []EntityRef `json:"automations"`
}

type VoiceTest struct {
	RequestID string         `json:"request_id,omitempty"`
	EngineID  string         `json:"tts_entity_id"`
	DeviceID  string         `json:"media_player_id"`
	Message   string         `json:"message"`
	Volume    float64        `json:"volume_level"`
	Cache     bool           `json:"cache"`
	Language  string         `json:"language"`
	Options   map[string]any `json:"options"`
}

type PastOrder struct {
	OrderUUID      string    `json:"order_uuid" yaml:"order_uuid"`
	StoreUUID      string    `json:"store_uuid" yaml:"store_uuid"`
	RestaurantName string    `json:"restaurant_name" yaml:"restaurant_name"`
	Total          float64   `json:"total" yaml:"total"`
	DeliveryFee    float64   `json:"delivery_fee" yaml:"delivery_fee"`
	IsCancelled    bool      `json:"is_cancelled" yaml:"is_cancelled"`
	CompletedAt    time.Time `json:"completed_at" yaml:"completed_at"`
}

type RestaurantStat struct {
	Name       string  `json:"name"`
	OrderCount int     `json:"order_count"`
	TotalSpent float64 `json:"total_spent"`
}

type Statistics struct {
	Year              int              `json:"year"`
	TotalOrders       int              `json:"total_orders"`
	TotalSpent        float64          `json:"total_spent"`
	TotalDeliveryFees float64          `json:"total_delivery_fees"`
	TopRestaurants    []RestaurantStat `json:"top_restaurants"`
}

type OrderHistory struct {
	Orders     []PastOrder `json:"orders"`
	Statistics *Statistics `json:"statistics"`
	FromCache  bool        `json:"from_cache"`
}

type UserProfile struct {
	PictureURL string `json:"picture_url,omitempty" yaml:"picture_url"`
	FirstName  string `json:"first_name" yaml:"first_name"`
	LastName   string `json:"last_name" yaml:"last_name"`
}

func (p UserProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
