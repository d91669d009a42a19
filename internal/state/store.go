package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/Dregen-Yor/auto-invoice/constants"
	"github.com/Dregen-Yor/auto-invoice/internal/common"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
)

const (
	peopleBucket   = "people"
	settingsBucket = "settings"

	serviceConfigKey = "service"
	tripInfoKey      = "trip"
)

// Store owns the application state: the person/invoice collection, the
// structuring service configuration, and the trip metadata. Components
// receive the store explicitly; persistence happens inside each mutation,
// one bbolt blob per person plus one per settings key. Invoice source bytes
// live only in memory and are stripped at the persistence boundary.
type Store struct {
	db     *bbolt.DB
	logger *slog.Logger

	mu     sync.RWMutex
	people map[uuid.UUID]*entity.Person
	config entity.ServiceConfig
	trip   entity.TripInfo
}

// Open opens the bbolt database at path, creates the buckets, and loads the
// persisted state into memory.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(peopleBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(settingsBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		people: make(map[uuid.UUID]*entity.Person),
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.normalizeInterrupted(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("state.open.ok", "path", path, "people", len(s.people))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		err := tx.Bucket([]byte(peopleBucket)).ForEach(func(k, v []byte) error {
			var p entity.Person
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("unmarshaling person %s: %w", k, err)
			}
			s.people[p.ID] = &p
			return nil
		})
		if err != nil {
			return err
		}

		settings := tx.Bucket([]byte(settingsBucket))
		if data := settings.Get([]byte(serviceConfigKey)); data != nil {
			if err := json.Unmarshal(data, &s.config); err != nil {
				return fmt.Errorf("unmarshaling service config: %w", err)
			}
		}
		if data := settings.Get([]byte(tripInfoKey)); data != nil {
			if err := json.Unmarshal(data, &s.trip); err != nil {
				return fmt.Errorf("unmarshaling trip info: %w", err)
			}
		}
		return nil
	})
}

// normalizeInterrupted marks records that were mid-extraction when the
// process stopped. Their source bytes did not survive the restart, so they
// cannot progress; the user has to upload the file again.
func (s *Store) normalizeInterrupted() error {
	for _, p := range s.people {
		changed := false
		for i := range p.Invoices {
			if !p.Invoices[i].Status.Terminal() {
				p.Invoices[i].Status = constants.StatusError
				p.Invoices[i].ErrorMessage = "extraction interrupted by restart; upload the file again"
				p.Invoices[i].UpdatedAt = time.Now()
				changed = true
			}
		}
		if changed {
			if err := s.persistPerson(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// persistPerson writes one person blob. Caller holds the lock. Marshaling
// drops SourceData through its json tag.
func (s *Store) persistPerson(p *entity.Person) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling person: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(peopleBucket)).Put([]byte(p.ID.String()), data)
	})
}

// ListPeople returns a snapshot of every person with their invoices, ordered
// by creation time.
func (s *Store) ListPeople() []entity.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Person, 0, len(s.people))
	for _, p := range s.people {
		out = append(out, copyPerson(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// GetPerson returns a snapshot of one person.
func (s *Store) GetPerson(id uuid.UUID) (entity.Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[id]
	if !ok {
		return entity.Person{}, false
	}
	return copyPerson(p), true
}

// CreatePerson adds a claimant and persists it.
func (s *Store) CreatePerson(name, number string) (entity.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := &entity.Person{
		ID:        uuid.New(),
		Name:      name,
		Number:    number,
		Invoices:  make([]entity.Invoice, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.persistPerson(p); err != nil {
		return entity.Person{}, err
	}
	s.people[p.ID] = p

	s.logger.Info("state.person.create", "person_id", p.ID, "name", name)
	return copyPerson(p), nil
}

// UpdatePerson renames or renumbers a claimant.
func (s *Store) UpdatePerson(id uuid.UUID, name, number string) (entity.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[id]
	if !ok {
		return entity.Person{}, common.ErrNotFound
	}
	p.Name = name
	p.Number = number
	p.UpdatedAt = time.Now()
	if err := s.persistPerson(p); err != nil {
		return entity.Person{}, err
	}
	return copyPerson(p), nil
}

// DeletePerson removes a claimant and every invoice they own.
func (s *Store) DeletePerson(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[id]; !ok {
		return common.ErrNotFound
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(peopleBucket)).Delete([]byte(id.String()))
	})
	if err != nil {
		return err
	}
	delete(s.people, id)

	s.logger.Info("state.person.delete", "person_id", id)
	return nil
}

// AddInvoice appends an invoice to its owner and persists the person blob.
func (s *Store) AddInvoice(personID uuid.UUID, inv entity.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[personID]
	if !ok {
		return common.ErrNotFound
	}
	p.Invoices = append(p.Invoices, inv)
	p.UpdatedAt = time.Now()
	return s.persistPerson(p)
}

// GetInvoice returns a snapshot of one invoice.
func (s *Store) GetInvoice(personID, invoiceID uuid.UUID) (entity.Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[personID]
	if !ok {
		return entity.Invoice{}, false
	}
	inv := p.FindInvoice(invoiceID)
	if inv == nil {
		return entity.Invoice{}, false
	}
	return *inv, true
}

// UpdateInvoice applies mutate to the identified invoice and persists the
// owning person. The merge is keyed by identifier: when the person or the
// invoice has been deleted in the meantime the update is discarded and ok is
// false. Extraction results arriving for deleted records land here as no-ops.
func (s *Store) UpdateInvoice(personID, invoiceID uuid.UUID, mutate func(*entity.Invoice)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[personID]
	if !ok {
		return false, nil
	}
	inv := p.FindInvoice(invoiceID)
	if inv == nil {
		return false, nil
	}

	mutate(inv)
	inv.UpdatedAt = time.Now()
	p.UpdatedAt = inv.UpdatedAt
	if err := s.persistPerson(p); err != nil {
		return true, err
	}
	return true, nil
}

// DeleteInvoice removes one invoice from its owner.
func (s *Store) DeleteInvoice(personID, invoiceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[personID]
	if !ok {
		return common.ErrNotFound
	}
	idx := -1
	for i := range p.Invoices {
		if p.Invoices[i].ID == invoiceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return common.ErrNotFound
	}
	p.Invoices = append(p.Invoices[:idx], p.Invoices[idx+1:]...)
	p.UpdatedAt = time.Now()
	if err := s.persistPerson(p); err != nil {
		return err
	}

	s.logger.Info("state.invoice.delete", "person_id", personID, "invoice_id", invoiceID)
	return nil
}

// ServiceConfig returns the current structuring service configuration.
func (s *Store) ServiceConfig() entity.ServiceConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetServiceConfig persists and installs a new service configuration.
func (s *Store) SetServiceConfig(cfg entity.ServiceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistSetting(serviceConfigKey, cfg); err != nil {
		return err
	}
	s.config = cfg

	s.logger.Info("state.config.save", "base_url", cfg.BaseURL, "model", cfg.Model)
	return nil
}

// TripInfo returns the current trip metadata.
func (s *Store) TripInfo() entity.TripInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trip
}

// SetTripInfo persists and installs new trip metadata.
func (s *Store) SetTripInfo(trip entity.TripInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistSetting(tripInfoKey, trip); err != nil {
		return err
	}
	s.trip = trip
	return nil
}

func (s *Store) persistSetting(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(settingsBucket)).Put([]byte(key), data)
	})
}

func copyPerson(p *entity.Person) entity.Person {
	cp := *p
	cp.Invoices = append([]entity.Invoice(nil), p.Invoices...)
	return cp
}
