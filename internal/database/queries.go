package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/estates/internal/core"
)

var _ core.Repository = (*Queries)(nil)

// buildingColumns are the writable columns of the building table, in the
// order used by insert, update and COPY.
var buildingColumns = []string{
	"square_footage",
	"construction_year",
	"land_area",
	"registration",
	"rooms",
	"bathrooms",
	"parking",
	"price",
	"estate_type_id",
	"offer_id",
	"city_part_id",
}

func recordValues(rec core.BuildingRecord) []interface{} {
	return []interface{}{
		rec.SquareFootage,
		rec.ConstructionYear,
		rec.LandArea,
		rec.Registration,
		rec.Rooms,
		rec.Bathrooms,
		rec.Parking,
		rec.Price,
		rec.EstateTypeID,
		rec.OfferID,
		rec.CityPartID,
	}
}

const getBuildings = `
SELECT b.id,
       b.square_footage, b.construction_year, b.land_area, b.registration,
       b.rooms, b.bathrooms, b.parking, b.price,
       b.estate_type_id, et.name,
       b.offer_id, o.name,
       b.city_part_id, cp.name, c.id, c.name, s.id, s.name,
       f.building_id IS NOT NULL, f.floor_level, f.floor_total
FROM building b
JOIN estate_type et ON et.id = b.estate_type_id
JOIN offer o ON o.id = b.offer_id
JOIN city_part cp ON cp.id = b.city_part_id
JOIN city c ON c.id = cp.city_id
JOIN state s ON s.id = c.state_id
LEFT JOIN building_floor f ON f.building_id = b.id
WHERE b.id = ANY($1)
ORDER BY b.id`

const getBuildingAmenities = `
SELECT ba.building_id, a.id, a.name
FROM building_amenity ba
JOIN amenity a ON a.id = ba.amenity_id
WHERE ba.building_id = ANY($1)
ORDER BY ba.building_id, a.id`

const getBuildingHeatings = `
SELECT bh.building_id, h.id, h.name
FROM building_heating bh
JOIN heating h ON h.id = bh.heating_id
WHERE bh.building_id = ANY($1)
ORDER BY bh.building_id, h.id`

// GetBuildings loads the buildings with every relation joined in.
func (q *Queries) GetBuildings(ctx context.Context, ids []int32) ([]core.Building, error) {
	if len(ids) == 0 {
		return []core.Building{}, nil
	}

	rows, err := q.db.Query(ctx, getBuildings, ids)
	if err != nil {
		return nil, fmt.Errorf("query buildings: %w", err)
	}
	buildings, err := pgx.CollectRows(rows, scanBuilding)
	if err != nil {
		return nil, fmt.Errorf("scan buildings: %w", err)
	}

	byID := make(map[int32]*core.Building, len(buildings))
	for i := range buildings {
		byID[buildings[i].ID] = &buildings[i]
	}

	if err := q.attachLookups(ctx, getBuildingAmenities, ids, func(b *core.Building, l core.Lookup) {
		b.Amenities = append(b.Amenities, l)
	}, byID); err != nil {
		return nil, fmt.Errorf("query amenities: %w", err)
	}
	if err := q.attachLookups(ctx, getBuildingHeatings, ids, func(b *core.Building, l core.Lookup) {
		b.Heatings = append(b.Heatings, l)
	}, byID); err != nil {
		return nil, fmt.Errorf("query heatings: %w", err)
	}

	return buildings, nil
}

func scanBuilding(row pgx.CollectableRow) (core.Building, error) {
	var (
		b        core.Building
		cp       core.CityPart
		hasFloor bool
		floor    core.BuildingFloor
	)
	err := row.Scan(
		&b.ID,
		&b.SquareFootage, &b.ConstructionYear, &b.LandArea, &b.Registration,
		&b.Rooms, &b.Bathrooms, &b.Parking, &b.Price,
		&b.EstateTypeID, &b.EstateType.Name,
		&b.OfferID, &b.Offer.Name,
		&b.CityPartID, &cp.Name, &cp.City.ID, &cp.City.Name, &cp.City.State.ID, &cp.City.State.Name,
		&hasFloor, &floor.FloorLevel, &floor.FloorTotal,
	)
	if err != nil {
		return b, err
	}

	b.EstateType.ID = b.EstateTypeID
	b.Offer.ID = b.OfferID
	cp.ID = b.CityPartID
	b.CityPart = &cp
	b.Amenities = []core.Lookup{}
	b.Heatings = []core.Lookup{}
	if hasFloor {
		floor.BuildingID = b.ID
		b.Floor = &floor
	}
	return b, nil
}

func (q *Queries) attachLookups(ctx context.Context, query string, ids []int32, add func(*core.Building, core.Lookup), byID map[int32]*core.Building) error {
	rows, err := q.db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			buildingID int32
			l          core.Lookup
		)
		if err := rows.Scan(&buildingID, &l.ID, &l.Name); err != nil {
			return err
		}
		if b, ok := byID[buildingID]; ok {
			add(b, l)
		}
	}
	return rows.Err()
}

// CountBuildings counts the buildings matching f.
func (q *Queries) CountBuildings(ctx context.Context, f core.BuildingFilter) (int64, error) {
	query, args := countQuery(f)
	var total int64
	if err := q.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count buildings: %w", err)
	}
	return total, nil
}

// ListBuildingIDs returns one page of matching ids ordered by id.
func (q *Queries) ListBuildingIDs(ctx context.Context, f core.BuildingFilter, limit, offset int) ([]int32, error) {
	query, args := pageQuery(f, limit, offset)
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	return ids, nil
}

const insertBuilding = `
INSERT INTO building (
    square_footage, construction_year, land_area, registration,
    rooms, bathrooms, parking, price,
    estate_type_id, offer_id, city_part_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`

// InsertBuilding inserts one row and returns its id.
func (q *Queries) InsertBuilding(ctx context.Context, rec core.BuildingRecord) (int32, error) {
	var id int32
	if err := q.db.QueryRow(ctx, insertBuilding, recordValues(rec)...).Scan(&id); err != nil {
		return 0, translateError(err)
	}
	return id, nil
}

const updateBuilding = `
UPDATE building SET
    square_footage = $1,
    construction_year = $2,
    land_area = $3,
    registration = $4,
    rooms = $5,
    bathrooms = $6,
    parking = $7,
    price = $8,
    estate_type_id = $9,
    offer_id = $10,
    city_part_id = $11
WHERE id = $12`

// UpdateBuilding overwrites every column of the building row.
func (q *Queries) UpdateBuilding(ctx context.Context, id int32, rec core.BuildingRecord) error {
	tag, err := q.db.Exec(ctx, updateBuilding, append(recordValues(rec), id)...)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return &core.NotFoundError{Entity: "building", ID: id}
	}
	return nil
}

// LockBuilding takes a row lock on the building until the transaction ends.
func (q *Queries) LockBuilding(ctx context.Context, id int32) error {
	var locked int32
	err := q.db.QueryRow(ctx, "SELECT id FROM building WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return &core.NotFoundError{Entity: "building", ID: id}
	}
	return err
}

// CopyBuildings bulk inserts recs with COPY FROM.
func (q *Queries) CopyBuildings(ctx context.Context, recs []core.BuildingRecord) (int64, error) {
	n, err := q.db.CopyFrom(ctx,
		pgx.Identifier{"building"},
		buildingColumns,
		pgx.CopyFromSlice(len(recs), func(i int) ([]interface{}, error) {
			return recordValues(recs[i]), nil
		}),
	)
	if err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

// ExistingAmenityIDs returns the subset of ids present in the amenity table.
func (q *Queries) ExistingAmenityIDs(ctx context.Context, ids []int32) ([]int32, error) {
	return q.existingIDs(ctx, "SELECT id FROM amenity WHERE id = ANY($1) ORDER BY id", ids)
}

// ExistingHeatingIDs returns the subset of ids present in the heating table.
func (q *Queries) ExistingHeatingIDs(ctx context.Context, ids []int32) ([]int32, error) {
	return q.existingIDs(ctx, "SELECT id FROM heating WHERE id = ANY($1) ORDER BY id", ids)
}

func (q *Queries) existingIDs(ctx context.Context, query string, ids []int32) ([]int32, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := q.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int32])
}

// SetBuildingAmenities replaces the amenity set of a building.
func (q *Queries) SetBuildingAmenities(ctx context.Context, buildingID int32, ids []int32) error {
	return q.replaceLinks(ctx, "building_amenity", "amenity_id", buildingID, ids)
}

// SetBuildingHeatings replaces the heating set of a building.
func (q *Queries) SetBuildingHeatings(ctx context.Context, buildingID int32, ids []int32) error {
	return q.replaceLinks(ctx, "building_heating", "heating_id", buildingID, ids)
}

func (q *Queries) replaceLinks(ctx context.Context, table, column string, buildingID int32, ids []int32) error {
	if _, err := q.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE building_id = $1", table), buildingID); err != nil {
		return translateError(err)
	}
	if len(ids) == 0 {
		return nil
	}
	insert := fmt.Sprintf("INSERT INTO %s (building_id, %s) SELECT $1, unnest($2::int[])", table, column)
	if _, err := q.db.Exec(ctx, insert, buildingID, ids); err != nil {
		return translateError(err)
	}
	return nil
}

const upsertBuildingFloor = `
INSERT INTO building_floor (building_id, floor_level, floor_total)
VALUES ($1, $2, $3)
ON CONFLICT (building_id) DO UPDATE
SET floor_level = EXCLUDED.floor_level,
    floor_total = EXCLUDED.floor_total`

// UpsertBuildingFloor creates or overwrites the floor record.
func (q *Queries) UpsertBuildingFloor(ctx context.Context, buildingID int32, floor core.FloorInput) error {
	if _, err := q.db.Exec(ctx, upsertBuildingFloor, buildingID, floor.FloorLevel, floor.FloorTotal); err != nil {
		return translateError(err)
	}
	return nil
}

// DeleteBuildingFloor removes the floor record, if any.
func (q *Queries) DeleteBuildingFloor(ctx context.Context, buildingID int32) error {
	_, err := q.db.Exec(ctx, "DELETE FROM building_floor WHERE building_id = $1", buildingID)
	return err
}

// OfferIDByName finds an offer by case-insensitive name.
func (q *Queries) OfferIDByName(ctx context.Context, name string) (int32, error) {
	return q.idByName(ctx, "SELECT id FROM offer WHERE lower(name) = lower($1)", "offer", name)
}

// EstateTypeIDByName finds an estate type by case-insensitive name.
func (q *Queries) EstateTypeIDByName(ctx context.Context, name string) (int32, error) {
	return q.idByName(ctx, "SELECT id FROM estate_type WHERE lower(name) = lower($1)", "estate type", name)
}

const cityPartIDByName = `
SELECT cp.id
FROM city_part cp
JOIN city c ON c.id = cp.city_id
WHERE lower(c.name) = lower($1) AND lower(cp.name) = lower($2)
ORDER BY cp.id
LIMIT 1`

// CityPartIDByName finds a city part by its name and the name of its city.
func (q *Queries) CityPartIDByName(ctx context.Context, city, part string) (int32, error) {
	var id int32
	err := q.db.QueryRow(ctx, cityPartIDByName, city, part).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &core.NotFoundError{Entity: "city part", Name: city + "/" + part}
	}
	return id, err
}

func (q *Queries) idByName(ctx context.Context, query, entity, name string) (int32, error) {
	var id int32
	err := q.db.QueryRow(ctx, query, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &core.NotFoundError{Entity: entity, Name: name}
	}
	return id, err
}
