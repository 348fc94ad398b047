package core

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
)

// memStore is an in-memory Store. WriteTx snapshots state and restores it
// when fn fails, mirroring a rolled back transaction.
type memStore struct {
	mu sync.Mutex

	estateTypes map[int32]string
	offers      map[int32]string
	amenities   map[int32]string
	heatings    map[int32]string
	states      map[int32]string
	cities      map[int32]City
	cityParts   map[int32]CityPart

	nextID    int32
	buildings map[int32]BuildingRecord
	bAmen     map[int32][]int32
	bHeat     map[int32][]int32
	floors    map[int32]FloorInput

	copyErr  error
	locks    []int32
	readTxs  int
	writeTxs int
}

func newMemStore() *memStore {
	s := &memStore{
		estateTypes: map[int32]string{1: "house", 2: "apartment"},
		offers:      map[int32]string{1: "for sale", 2: "for rent"},
		amenities:   map[int32]string{1: "pool", 2: "garden", 3: "elevator"},
		heatings:    map[int32]string{1: "gas", 2: "electric"},
		states:      map[int32]string{1: "Croatia", 2: "Serbia"},
		cities: map[int32]City{
			1: {ID: 1, Name: "Zagreb", State: Lookup{ID: 1, Name: "Croatia"}},
			2: {ID: 2, Name: "Unknown", State: Lookup{ID: 1, Name: "Croatia"}},
			3: {ID: 3, Name: "Beograd", State: Lookup{ID: 2, Name: "Serbia"}},
		},
		buildings: map[int32]BuildingRecord{},
		bAmen:     map[int32][]int32{},
		bHeat:     map[int32][]int32{},
		floors:    map[int32]FloorInput{},
	}
	s.cityParts = map[int32]CityPart{
		1: {ID: 1, Name: "Centar", City: s.cities[1]},
		2: {ID: 2, Name: "Unknown", City: s.cities[2]},
		3: {ID: 3, Name: "Vracar", City: s.cities[3]},
	}
	return s
}

func (s *memStore) ReadTx(ctx context.Context, fn func(Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readTxs++
	return fn(&memRepo{s: s, readOnly: true})
}

func (s *memStore) WriteTx(ctx context.Context, fn func(Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeTxs++

	nextID := s.nextID
	buildings := maps.Clone(s.buildings)
	bAmen := maps.Clone(s.bAmen)
	bHeat := maps.Clone(s.bHeat)
	floors := maps.Clone(s.floors)

	if err := fn(&memRepo{s: s}); err != nil {
		s.nextID, s.buildings, s.bAmen, s.bHeat, s.floors = nextID, buildings, bAmen, bHeat, floors
		return err
	}
	return nil
}

func (s *memStore) Ping(ctx context.Context) error { return nil }

// seed inserts a building directly and returns its id.
func (s *memStore) seed(rec BuildingRecord) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.buildings[s.nextID] = rec
	return s.nextID
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buildings)
}

type memRepo struct {
	s        *memStore
	readOnly bool
}

var errReadOnly = errors.New("cannot execute in a read-only transaction")

func (r *memRepo) hydrate(id int32) Building {
	rec := r.s.buildings[id]
	b := Building{
		ID:             id,
		BuildingRecord: rec,
		EstateType:     Lookup{ID: rec.EstateTypeID, Name: r.s.estateTypes[rec.EstateTypeID]},
		Offer:          Lookup{ID: rec.OfferID, Name: r.s.offers[rec.OfferID]},
		Amenities:      []Lookup{},
		Heatings:       []Lookup{},
	}
	if cp, ok := r.s.cityParts[rec.CityPartID]; ok {
		b.CityPart = &cp
	}
	for _, a := range r.s.bAmen[id] {
		b.Amenities = append(b.Amenities, Lookup{ID: a, Name: r.s.amenities[a]})
	}
	for _, h := range r.s.bHeat[id] {
		b.Heatings = append(b.Heatings, Lookup{ID: h, Name: r.s.heatings[h]})
	}
	if f, ok := r.s.floors[id]; ok {
		b.Floor = &BuildingFloor{BuildingID: id, FloorLevel: f.FloorLevel, FloorTotal: f.FloorTotal}
	}
	return b
}

func (r *memRepo) GetBuildings(ctx context.Context, ids []int32) ([]Building, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	out := []Building{}
	for _, id := range sorted {
		if _, ok := r.s.buildings[id]; ok {
			out = append(out, r.hydrate(id))
		}
	}
	return out, nil
}

func (r *memRepo) matches(rec BuildingRecord, f BuildingFilter) bool {
	if f.MinSqft != nil && (rec.SquareFootage == nil || *rec.SquareFootage < float64(*f.MinSqft)) {
		return false
	}
	if f.MaxSqft != nil && (rec.SquareFootage == nil || *rec.SquareFootage > float64(*f.MaxSqft)) {
		return false
	}
	if f.Parking != nil && (rec.Parking == nil || *rec.Parking != *f.Parking) {
		return false
	}
	if f.State != nil {
		cp, ok := r.s.cityParts[rec.CityPartID]
		if !ok || !strings.EqualFold(cp.City.State.Name, *f.State) {
			return false
		}
	}
	if f.EstateType != nil && !strings.EqualFold(r.s.estateTypes[rec.EstateTypeID], *f.EstateType) {
		return false
	}
	return true
}

func (r *memRepo) matchingIDs(f BuildingFilter) []int32 {
	var ids []int32
	for id, rec := range r.s.buildings {
		if r.matches(rec, f) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (r *memRepo) CountBuildings(ctx context.Context, f BuildingFilter) (int64, error) {
	return int64(len(r.matchingIDs(f))), nil
}

func (r *memRepo) ListBuildingIDs(ctx context.Context, f BuildingFilter, limit, offset int) ([]int32, error) {
	ids := r.matchingIDs(f)
	if offset >= len(ids) {
		return nil, nil
	}
	return ids[offset:min(offset+limit, len(ids))], nil
}

func (r *memRepo) checkRefs(rec BuildingRecord) error {
	if _, ok := r.s.estateTypes[rec.EstateTypeID]; !ok {
		return NewIntegrityError(errors.New(`violates foreign key constraint "building_estate_type_id_fkey"`), "building_estate_type_id_fkey")
	}
	if _, ok := r.s.offers[rec.OfferID]; !ok {
		return NewIntegrityError(errors.New(`violates foreign key constraint "building_offer_id_fkey"`), "building_offer_id_fkey")
	}
	if _, ok := r.s.cityParts[rec.CityPartID]; !ok {
		return NewIntegrityError(errors.New(`violates foreign key constraint "building_city_part_id_fkey"`), "building_city_part_id_fkey")
	}
	return nil
}

func (r *memRepo) InsertBuilding(ctx context.Context, rec BuildingRecord) (int32, error) {
	if r.readOnly {
		return 0, errReadOnly
	}
	if err := r.checkRefs(rec); err != nil {
		return 0, err
	}
	r.s.nextID++
	r.s.buildings[r.s.nextID] = rec
	return r.s.nextID, nil
}

func (r *memRepo) UpdateBuilding(ctx context.Context, id int32, rec BuildingRecord) error {
	if r.readOnly {
		return errReadOnly
	}
	if err := r.checkRefs(rec); err != nil {
		return err
	}
	r.s.buildings[id] = rec
	return nil
}

func (r *memRepo) LockBuilding(ctx context.Context, id int32) error {
	if r.readOnly {
		return errReadOnly
	}
	r.s.locks = append(r.s.locks, id)
	if _, ok := r.s.buildings[id]; !ok {
		return &NotFoundError{Entity: "building", ID: id}
	}
	return nil
}

func (r *memRepo) CopyBuildings(ctx context.Context, recs []BuildingRecord) (int64, error) {
	if r.readOnly {
		return 0, errReadOnly
	}
	if r.s.copyErr != nil {
		return 0, r.s.copyErr
	}
	for _, rec := range recs {
		if err := r.checkRefs(rec); err != nil {
			return 0, err
		}
		r.s.nextID++
		r.s.buildings[r.s.nextID] = rec
	}
	return int64(len(recs)), nil
}

func existing(table map[int32]string, ids []int32) []int32 {
	var out []int32
	for _, id := range ids {
		if _, ok := table[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (r *memRepo) ExistingAmenityIDs(ctx context.Context, ids []int32) ([]int32, error) {
	return existing(r.s.amenities, ids), nil
}

func (r *memRepo) ExistingHeatingIDs(ctx context.Context, ids []int32) ([]int32, error) {
	return existing(r.s.heatings, ids), nil
}

func (r *memRepo) SetBuildingAmenities(ctx context.Context, buildingID int32, ids []int32) error {
	if r.readOnly {
		return errReadOnly
	}
	r.s.bAmen[buildingID] = slices.Clone(ids)
	return nil
}

func (r *memRepo) SetBuildingHeatings(ctx context.Context, buildingID int32, ids []int32) error {
	if r.readOnly {
		return errReadOnly
	}
	r.s.bHeat[buildingID] = slices.Clone(ids)
	return nil
}

func (r *memRepo) UpsertBuildingFloor(ctx context.Context, buildingID int32, floor FloorInput) error {
	if r.readOnly {
		return errReadOnly
	}
	r.s.floors[buildingID] = floor
	return nil
}

func (r *memRepo) DeleteBuildingFloor(ctx context.Context, buildingID int32) error {
	if r.readOnly {
		return errReadOnly
	}
	delete(r.s.floors, buildingID)
	return nil
}

func lookupName(table map[int32]string, entity, name string) (int32, error) {
	for id, n := range table {
		if strings.EqualFold(n, name) {
			return id, nil
		}
	}
	return 0, &NotFoundError{Entity: entity, Name: name}
}

func (r *memRepo) OfferIDByName(ctx context.Context, name string) (int32, error) {
	return lookupName(r.s.offers, "offer", name)
}

func (r *memRepo) EstateTypeIDByName(ctx context.Context, name string) (int32, error) {
	return lookupName(r.s.estateTypes, "estate type", name)
}

func (r *memRepo) CityPartIDByName(ctx context.Context, city, part string) (int32, error) {
	for id, cp := range r.s.cityParts {
		if strings.EqualFold(cp.City.Name, city) && strings.EqualFold(cp.Name, part) {
			return id, nil
		}
	}
	return 0, &NotFoundError{Entity: "city part", Name: city + "/" + part}
}

func ptr[T any](v T) *T { return &v }
