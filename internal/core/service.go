package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/estates/internal/logging"
)

// Service provides the building operations used by the API and the ingester.
type Service struct {
	store Store
}

// NewService creates a new Service instance.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Get fetches one hydrated building.
func (s *Service) Get(ctx context.Context, id int32) (*Building, error) {
	var out *Building
	err := s.store.ReadTx(ctx, func(repo Repository) error {
		b, err := getBuilding(ctx, repo, id)
		out = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Search returns one page of buildings matching the filter. Count and page
// fetch share a read-only snapshot.
func (s *Service) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if err := ValidateSearch(&q); err != nil {
		return nil, err
	}

	result := &SearchResult{Size: q.Size}
	err := s.store.ReadTx(ctx, func(repo Repository) error {
		total, err := repo.CountBuildings(ctx, q.BuildingFilter)
		if err != nil {
			return fmt.Errorf("count buildings: %w", err)
		}

		page := Paginate(total, q.Page, q.Size)
		result.Total = total
		result.Page = page.Number
		result.Pages = page.Pages
		result.Buildings = []Building{}

		if total == 0 {
			return nil
		}

		ids, err := repo.ListBuildingIDs(ctx, q.BuildingFilter, page.Size, page.Offset)
		if err != nil {
			return fmt.Errorf("list building ids: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		buildings, err := repo.GetBuildings(ctx, ids)
		if err != nil {
			return fmt.Errorf("load buildings: %w", err)
		}
		result.Buildings = buildings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Create persists a new building with its associations and floor. Unknown
// amenity or heating ids reject the whole operation.
func (s *Service) Create(ctx context.Context, in BuildingCreate) (*Building, error) {
	rec := BuildingRecord{
		SquareFootage:    in.SquareFootage,
		ConstructionYear: in.ConstructionYear,
		LandArea:         in.LandArea,
		Registration:     in.Registration,
		Rooms:            in.Rooms,
		Bathrooms:        in.Bathrooms,
		Parking:          in.Parking,
		Price:            in.Price,
		EstateTypeID:     in.EstateTypeID,
		OfferID:          in.OfferID,
		CityPartID:       in.CityPartID,
	}
	if err := validateRecord(rec); err != nil {
		return nil, err
	}

	amenities := dedupeIDs(in.AmenityIDs)
	heatings := dedupeIDs(in.HeatingIDs)

	var out *Building
	err := s.store.WriteTx(ctx, func(repo Repository) error {
		if err := checkAssociations(ctx, repo, amenities, heatings); err != nil {
			return err
		}

		id, err := repo.InsertBuilding(ctx, rec)
		if err != nil {
			return fmt.Errorf("insert building: %w", err)
		}
		if len(amenities) > 0 {
			if err := repo.SetBuildingAmenities(ctx, id, amenities); err != nil {
				return fmt.Errorf("set amenities: %w", err)
			}
		}
		if len(heatings) > 0 {
			if err := repo.SetBuildingHeatings(ctx, id, heatings); err != nil {
				return fmt.Errorf("set heatings: %w", err)
			}
		}
		if in.Floor != nil {
			if err := repo.UpsertBuildingFloor(ctx, id, *in.Floor); err != nil {
				return fmt.Errorf("set floor: %w", err)
			}
		}

		out, err = getBuilding(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("building created",
		slog.Int("id", int(out.ID)),
		slog.String("actor", ActorFromContext(ctx)),
	)
	return out, nil
}

// Update applies only the fields present in the request. Present amenity or
// heating id lists replace the existing set.
func (s *Service) Update(ctx context.Context, id int32, in BuildingUpdate) (*Building, error) {
	var amenities, heatings []int32
	if in.AmenityIDs.Valid {
		amenities = dedupeIDs(in.AmenityIDs.Value)
	}
	if in.HeatingIDs.Valid {
		heatings = dedupeIDs(in.HeatingIDs.Value)
	}
	if in.Floor.Valid && in.Floor.Value.FloorTotal != nil && *in.Floor.Value.FloorTotal < 0 {
		return nil, &ValidationError{Field: "floor_total", Message: "invalid range: must be non-negative"}
	}

	var out *Building
	err := s.store.WriteTx(ctx, func(repo Repository) error {
		// Absent fields are written back from this read, so the row must not
		// change underneath it.
		if err := repo.LockBuilding(ctx, id); err != nil {
			return err
		}
		existing, err := getBuilding(ctx, repo, id)
		if err != nil {
			return err
		}

		rec, err := applyUpdate(existing.BuildingRecord, in)
		if err != nil {
			return err
		}
		if err := validateRecord(rec); err != nil {
			return err
		}

		if err := checkAssociations(ctx, repo, amenities, heatings); err != nil {
			return err
		}

		if err := repo.UpdateBuilding(ctx, id, rec); err != nil {
			return fmt.Errorf("update building: %w", err)
		}
		if in.AmenityIDs.Set {
			if err := repo.SetBuildingAmenities(ctx, id, amenities); err != nil {
				return fmt.Errorf("set amenities: %w", err)
			}
		}
		if in.HeatingIDs.Set {
			if err := repo.SetBuildingHeatings(ctx, id, heatings); err != nil {
				return fmt.Errorf("set heatings: %w", err)
			}
		}
		switch {
		case in.Floor.Valid:
			if err := repo.UpsertBuildingFloor(ctx, id, in.Floor.Value); err != nil {
				return fmt.Errorf("set floor: %w", err)
			}
		case in.Floor.Set:
			if err := repo.DeleteBuildingFloor(ctx, id); err != nil {
				return fmt.Errorf("delete floor: %w", err)
			}
		}

		out, err = getBuilding(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("building updated",
		slog.Int("id", int(id)),
		slog.String("actor", ActorFromContext(ctx)),
	)
	return out, nil
}

// BulkCreate inserts prepared records in one transaction and returns the
// inserted count. Either every record is stored or none.
func (s *Service) BulkCreate(ctx context.Context, recs []BuildingRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	var n int64
	err := s.store.WriteTx(ctx, func(repo Repository) error {
		var err error
		n, err = repo.CopyBuildings(ctx, recs)
		if err != nil {
			return fmt.Errorf("copy buildings: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ResolveReferences looks up the fixed offer, estate type and city part
// attached to ingested buildings.
func (s *Service) ResolveReferences(ctx context.Context, offer, estateType, city, cityPart string) (ReferenceIDs, error) {
	var refs ReferenceIDs
	err := s.store.ReadTx(ctx, func(repo Repository) error {
		var err error
		if refs.OfferID, err = repo.OfferIDByName(ctx, offer); err != nil {
			return err
		}
		if refs.EstateTypeID, err = repo.EstateTypeIDByName(ctx, estateType); err != nil {
			return err
		}
		if refs.CityPartID, err = repo.CityPartIDByName(ctx, city, cityPart); err != nil {
			return err
		}
		return nil
	})
	return refs, err
}

func getBuilding(ctx context.Context, repo Repository, id int32) (*Building, error) {
	buildings, err := repo.GetBuildings(ctx, []int32{id})
	if err != nil {
		return nil, fmt.Errorf("get building %d: %w", id, err)
	}
	if len(buildings) == 0 {
		return nil, &NotFoundError{Entity: "building", ID: id}
	}
	return &buildings[0], nil
}

func checkAssociations(ctx context.Context, repo Repository, amenities, heatings []int32) error {
	if len(amenities) > 0 {
		found, err := repo.ExistingAmenityIDs(ctx, amenities)
		if err != nil {
			return fmt.Errorf("check amenities: %w", err)
		}
		if missing := missingIDs(amenities, found); len(missing) > 0 {
			return &NotFoundError{Entity: "amenity", IDs: missing}
		}
	}
	if len(heatings) > 0 {
		found, err := repo.ExistingHeatingIDs(ctx, heatings)
		if err != nil {
			return fmt.Errorf("check heatings: %w", err)
		}
		if missing := missingIDs(heatings, found); len(missing) > 0 {
			return &NotFoundError{Entity: "heating", IDs: missing}
		}
	}
	return nil
}

// applyUpdate copies present fields onto rec. Required foreign keys cannot be nulled.
func applyUpdate(rec BuildingRecord, in BuildingUpdate) (BuildingRecord, error) {
	in.SquareFootage.applyTo(&rec.SquareFootage)
	in.ConstructionYear.applyTo(&rec.ConstructionYear)
	in.LandArea.applyTo(&rec.LandArea)
	in.Registration.applyTo(&rec.Registration)
	in.Rooms.applyTo(&rec.Rooms)
	in.Bathrooms.applyTo(&rec.Bathrooms)
	in.Parking.applyTo(&rec.Parking)
	in.Price.applyTo(&rec.Price)

	fks := []struct {
		name  string
		field Field[int32]
		dst   *int32
	}{
		{"estate_type_id", in.EstateTypeID, &rec.EstateTypeID},
		{"offer_id", in.OfferID, &rec.OfferID},
		{"city_part_id", in.CityPartID, &rec.CityPartID},
	}
	for _, fk := range fks {
		if !fk.field.Set {
			continue
		}
		if !fk.field.Valid {
			return rec, &ValidationError{Field: fk.name, Value: "null", Message: "required field is empty"}
		}
		*fk.dst = fk.field.Value
	}
	return rec, nil
}
