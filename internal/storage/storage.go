// Package storage persists backend state in a bbolt file. Values are JSON.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"eatsdash/internal/models"

	bolt "go.etcd.io/bbolt"
)

var (
	metaBucket       = []byte("meta")
	accountsBucket   = []byte("accounts")
	settingsBucket   = []byte("settings")
	catalogBucket    = []byte("catalog")
	historyBucket    = []byte("history")
	profilesBucket   = []byte("profiles")
	pastOrdersBucket = []byte("past_orders")

	keySchemaVersion = []byte("schema_version")
	keyEntities      = []byte("entities")
	keyAutomations   = []byte("automations")
)

const schemaVersion = "1"

var ErrNotFound = errors.New("not found")

type Store struct {
	db     *bolt.DB
	dbPath string
}

func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{metaBucket, accountsBucket, settingsBucket, catalogBucket, historyBucket, profilesBucket, pastOrdersBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		meta := tx.Bucket(metaBucket)
		if meta.Get(keySchemaVersion) == nil {
			if err := meta.Put(keySchemaVersion, []byte(schemaVersion)); err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *Store) put(bucket []byte, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", bucket, key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *Store) get(bucket []byte, key string, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, v)
	})
}

// SaveAccount stores the latest snapshot for an account, replacing the
// previous one wholesale.
func (s *Store) SaveAccount(acc models.AccountSnapshot) error {
	if acc.EntryID == "" {
		return fmt.Errorf("account has no entry id")
	}
	return s.put(accountsBucket, acc.EntryID, acc)
}

func (s *Store) GetAccount(entryID string) (*models.AccountSnapshot, error) {
	var acc models.AccountSnapshot
	if err := s.get(accountsBucket, entryID, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// ListAccounts returns every account ordered by name, then id.
func (s *Store) ListAccounts() ([]models.AccountSnapshot, error) {
	var accounts []models.AccountSnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(accountsBucket).ForEach(func(k, v []byte) error {
			var acc models.AccountSnapshot
			if err := json.Unmarshal(v, &acc); err != nil {
				return fmt.Errorf("failed to parse account %s: %w", k, err)
			}
			accounts = append(accounts, acc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].AccountName != accounts[j].AccountName {
			return accounts[i].AccountName < accounts[j].AccountName
		}
		return accounts[i].EntryID < accounts[j].EntryID
	})
	return accounts, nil
}

// DeleteAccount removes the account and everything keyed by it.
func (s *Store) DeleteAccount(entryID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		accounts := tx.Bucket(accountsBucket)
		if accounts.Get([]byte(entryID)) == nil {
			return ErrNotFound
		}
		for _, bucket := range [][]byte{accountsBucket, settingsBucket, historyBucket, profilesBucket, pastOrdersBucket} {
			if err := tx.Bucket(bucket).Delete([]byte(entryID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSettings returns the stored document, or ErrNotFound when the account
// never saved one.
func (s *Store) GetSettings(entryID string) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	if err := s.get(settingsBucket, entryID, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) SaveSettings(entryID string, settings models.NotificationSettings) error {
	return s.put(settingsBucket, entryID, settings)
}

func (s *Store) GetEntities() (*models.EntityCatalog, error) {
	var catalog models.EntityCatalog
	if err := s.get(catalogBucket, string(keyEntities), &catalog); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &models.EntityCatalog{Engines: []models.EntityRef{}, Devices: []models.EntityRef{}}, nil
		}
		return nil, err
	}
	return &catalog, nil
}

func (s *Store) SaveEntities(catalog models.EntityCatalog) error {
	return s.put(catalogBucket, string(keyEntities), catalog)
}

func (s *Store) GetAutomations() ([]models.EntityRef, error) {
	var autos []models.EntityRef
	if err := s.get(catalogBucket, string(keyAutomations), &autos); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []models.EntityRef{}, nil
		}
		return nil, err
	}
	return autos, nil
}

func (s *Store) SaveAutomations(autos []models.EntityRef) error {
	return s.put(catalogBucket, string(keyAutomations), autos)
}

func (s *Store) GetProfile(entryID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.get(profilesBucket, entryID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SaveProfile(entryID string, p models.UserProfile) error {
	return s.put(profilesBucket, entryID, p)
}

// PastOrders is the local order history, used when no Postgres history
// source is configured.
func (s *Store) PastOrders(entryID string) ([]models.PastOrder, error) {
	var orders []models.PastOrder
	if err := s.get(pastOrdersBucket, entryID, &orders); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []models.PastOrder{}, nil
		}
		return nil, err
	}
	return orders, nil
}

func (s *Store) SavePastOrders(entryID string, orders []models.PastOrder) error {
	return s.put(pastOrdersBucket, entryID, orders)
}

// CachedHistory is a history response together with the time it was built.
type CachedHistory struct {
	History   models.OrderHistory `json:"history"`
	FetchedAt time.Time           `json:"fetched_at"`
}

func (s *Store) GetCachedHistory(entryID string) (*CachedHistory, error) {
	var c CachedHistory
	if err := s.get(historyBucket, entryID, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveCachedHistory(entryID string, h models.OrderHistory, at time.Time) error {
	h.FromCache = false
	return s.put(historyBucket, entryID, CachedHistory{History: h, FetchedAt: at})
}
