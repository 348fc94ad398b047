//go:build integration

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/JonMunkholm/estates/internal/config"
	"github.com/JonMunkholm/estates/internal/core"
)

// Usage:
//   go test -tags integration ./internal/database/...

const seedLocations = `
INSERT INTO state (name) VALUES ('Croatia'), ('Serbia');
INSERT INTO city (name, state_id) VALUES
    ('Zagreb', (SELECT id FROM state WHERE name = 'Croatia')),
    ('Beograd', (SELECT id FROM state WHERE name = 'Serbia'));
INSERT INTO city_part (name, city_id) VALUES
    ('Centar', (SELECT id FROM city WHERE name = 'Zagreb')),
    ('Vracar', (SELECT id FROM city WHERE name = 'Beograd'));
INSERT INTO amenity (name) VALUES ('pool'), ('garden'), ('elevator');
INSERT INTO heating (name) VALUES ('gas'), ('electric');
`

type fixture struct {
	pool  *pgxpool.Pool
	store *Store
	svc   *core.Service

	house, apartment int32
	forSale          int32
	centar, vracar   int32
}

func setupStore(t *testing.T) *fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("real_estate_db"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithInitScripts(filepath.Join("..", "..", "sql", "schema.sql")),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, config.DatabaseConfig{
		URL:             dsn,
		PoolSize:        2,
		MaxOverflow:     2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, seedLocations)
	require.NoError(t, err)

	f := &fixture{pool: pool, store: NewStore(pool)}
	f.svc = core.NewService(f.store)

	q := New(pool)
	f.house, err = q.EstateTypeIDByName(ctx, "house")
	require.NoError(t, err)
	f.apartment, err = q.EstateTypeIDByName(ctx, "apartment")
	require.NoError(t, err)
	f.forSale, err = q.OfferIDByName(ctx, "for sale")
	require.NoError(t, err)
	f.centar, err = q.CityPartIDByName(ctx, "Zagreb", "Centar")
	require.NoError(t, err)
	f.vracar, err = q.CityPartIDByName(ctx, "Beograd", "Vracar")
	require.NoError(t, err)

	return f
}

func ptr32(v int32) *int32 { return &v }

func TestStore_CreateAndGet(t *testing.T) {
	f := setupStore(t)
	ctx := t.Context()

	created, err := f.svc.Create(ctx, core.BuildingCreate{
		SquareFootage: ptr(85.5),
		Rooms:         ptr(3.0),
		Parking:       ptr(true),
		Price:         ptr32(120000),
		EstateTypeID:  f.apartment,
		OfferID:       f.forSale,
		CityPartID:    f.centar,
		AmenityIDs:    []int32{2, 1, 2},
		HeatingIDs:    []int32{1},
		Floor:         &core.FloorInput{FloorLevel: ptr("3"), FloorTotal: ptr32(6)},
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "apartment", got.EstateType.Name)
	assert.Equal(t, "for sale", got.Offer.Name)
	require.NotNil(t, got.CityPart)
	assert.Equal(t, "Centar", got.CityPart.Name)
	assert.Equal(t, "Zagreb", got.CityPart.City.Name)
	assert.Equal(t, "Croatia", got.CityPart.City.State.Name)
	assert.Equal(t, []core.Lookup{{ID: 1, Name: "pool"}, {ID: 2, Name: "garden"}}, got.Amenities)
	assert.Equal(t, []core.Lookup{{ID: 1, Name: "gas"}}, got.Heatings)
	require.NotNil(t, got.Floor)
	assert.Equal(t, created.ID, got.Floor.BuildingID)
	assert.Equal(t, "3", *got.Floor.FloorLevel)
	assert.Nil(t, got.ConstructionYear)
}

func TestStore_GetMissing(t *testing.T) {
	f := setupStore(t)

	_, err := f.svc.Get(t.Context(), 999)

	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int32(999), nf.ID)
}

func TestStore_CreateMissingAmenityPersistsNothing(t *testing.T) {
	f := setupStore(t)
	ctx := t.Context()

	_, err := f.svc.Create(ctx, core.BuildingCreate{
		EstateTypeID: f.house,
		OfferID:      f.forSale,
		CityPartID:   f.centar,
		AmenityIDs:   []int32{1, 42},
	})

	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []int32{42}, nf.IDs)

	res, err := f.svc.Search(ctx, core.SearchQuery{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestStore_CreateBadForeignKeyIsIntegrityError(t *testing.T) {
	f := setupStore(t)

	_, err := f.svc.Create(t.Context(), core.BuildingCreate{
		EstateTypeID: f.house,
		OfferID:      f.forSale,
		CityPartID:   9999,
	})

	var ie *core.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "building_city_part_id_fkey", ie.Constraint)
}

func TestStore_UpdatePartial(t *testing.T) {
	f := setupStore(t)
	ctx := t.Context()

	created, err := f.svc.Create(ctx, core.BuildingCreate{
		Price:        ptr32(100),
		Rooms:        ptr(2.0),
		EstateTypeID: f.house,
		OfferID:      f.forSale,
		CityPartID:   f.centar,
		AmenityIDs:   []int32{1},
		Floor:        &core.FloorInput{FloorTotal: ptr32(2)},
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, core.BuildingUpdate{
		Price:      core.Value[int32](250),
		Rooms:      core.Null[float64](),
		AmenityIDs: core.Value([]int32{3}),
		Floor:      core.Null[core.FloorInput](),
	})
	require.NoError(t, err)

	assert.Equal(t, int32(250), *updated.Price)
	assert.Nil(t, updated.Rooms)
	assert.Equal(t, []core.Lookup{{ID: 3, Name: "elevator"}}, updated.Amenities)
	assert.Nil(t, updated.Floor)
	assert.Equal(t, f.house, updated.EstateType.ID)
}

func TestStore_SearchFiltersAndPages(t *testing.T) {
	f := setupStore(t)
	ctx := t.Context()

	var recs []core.BuildingRecord
	for i := range 12 {
		rec := core.BuildingRecord{
			SquareFootage: ptr(float64(40 + i*10)),
			Parking:       ptr(i%2 == 0),
			EstateTypeID:  f.house,
			OfferID:       f.forSale,
			CityPartID:    f.centar,
		}
		if i >= 8 {
			rec.EstateTypeID = f.apartment
			rec.CityPartID = f.vracar
		}
		recs = append(recs, rec)
	}
	n, err := f.svc.BulkCreate(ctx, recs)
	require.NoError(t, err)
	require.Equal(t, int64(12), n)

	res, err := f.svc.Search(ctx, core.SearchQuery{Size: 5, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, res.Buildings, 2)

	res, err = f.svc.Search(ctx, core.SearchQuery{Size: 5, Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page)

	res, err = f.svc.Search(ctx, core.SearchQuery{
		BuildingFilter: core.BuildingFilter{State: ptr("serbia"), EstateType: ptr("apartment")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)
	for _, b := range res.Buildings {
		assert.Equal(t, "Serbia", b.CityPart.City.State.Name)
	}

	res, err = f.svc.Search(ctx, core.SearchQuery{
		BuildingFilter: core.BuildingFilter{MinSqft: ptr(60), MaxSqft: ptr(100), Parking: ptr(true)},
	})
	require.NoError(t, err)
	// 60, 80, 100
	assert.Equal(t, int64(3), res.Total)

	res, err = f.svc.Search(ctx, core.SearchQuery{
		BuildingFilter: core.BuildingFilter{State: ptr("Atlantis")},
	})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Equal(t, 1, res.Pages)
	assert.Empty(t, res.Buildings)
}

func TestStore_BulkCreateRollsBackOnViolation(t *testing.T) {
	f := setupStore(t)
	ctx := t.Context()

	recs := []core.BuildingRecord{
		{EstateTypeID: f.house, OfferID: f.forSale, CityPartID: f.centar},
		{EstateTypeID: f.house, OfferID: 9999, CityPartID: f.centar},
	}

	_, err := f.svc.BulkCreate(ctx, recs)
	var ie *core.IntegrityError
	require.ErrorAs(t, err, &ie)

	res, err := f.svc.Search(ctx, core.SearchQuery{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestStore_ResolveReferences(t *testing.T) {
	f := setupStore(t)
	ctx := t.Context()

	refs, err := f.svc.ResolveReferences(ctx, "For Sale", "house", "Unknown", "Unknown")
	require.NoError(t, err)
	assert.Equal(t, f.forSale, refs.OfferID)
	assert.Equal(t, f.house, refs.EstateTypeID)
	assert.NotZero(t, refs.CityPartID)

	_, err = f.svc.ResolveReferences(ctx, "for sale", "castle", "Unknown", "Unknown")
	assert.True(t, core.IsNotFound(err))
}

func TestStore_ReadTxIsReadOnly(t *testing.T) {
	f := setupStore(t)

	err := f.store.ReadTx(t.Context(), func(repo core.Repository) error {
		_, err := repo.InsertBuilding(t.Context(), core.BuildingRecord{
			EstateTypeID: f.house, OfferID: f.forSale, CityPartID: f.centar,
		})
		return err
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}

func TestStore_Ping(t *testing.T) {
	f := setupStore(t)
	assert.NoError(t, f.store.Ping(t.Context()))
}

func TestStore_ConcurrentPartialUpdatesKeepBothChanges(t *testing.T) {
	f := setupStore(t)
	ctx := t.Context()

	created, err := f.svc.Create(ctx, core.BuildingCreate{
		Price:        ptr32(1),
		Rooms:        ptr(1.0),
		EstateTypeID: f.house,
		OfferID:      f.forSale,
		CityPartID:   f.centar,
	})
	require.NoError(t, err)
	id := created.ID

	// The first writer holds the row while the second partial update starts.
	locked := make(chan struct{})
	release := make(chan struct{})
	first := make(chan error, 1)
	go func() {
		first <- f.store.WriteTx(ctx, func(repo core.Repository) error {
			if err := repo.LockBuilding(ctx, id); err != nil {
				return err
			}
			close(locked)
			<-release
			rows, err := repo.GetBuildings(ctx, []int32{id})
			if err != nil {
				return err
			}
			rec := rows[0].BuildingRecord
			rec.Price = ptr32(2)
			return repo.UpdateBuilding(ctx, id, rec)
		})
	}()
	<-locked

	second := make(chan error, 1)
	go func() {
		_, err := f.svc.Update(ctx, id, core.BuildingUpdate{Rooms: core.Value(3.0)})
		second <- err
	}()

	require.Eventually(t, func() bool {
		var waiting int
		err := f.pool.QueryRow(ctx,
			"SELECT count(*) FROM pg_stat_activity WHERE wait_event_type = 'Lock'").Scan(&waiting)
		return err == nil && waiting == 1
	}, 10*time.Second, 20*time.Millisecond, "second update should wait on the row lock")

	close(release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(2), *got.Price)
	assert.Equal(t, 3.0, *got.Rooms)
}

func TestStore_ParallelPartialUpdates(t *testing.T) {
	f := setupStore(t)
	ctx := t.Context()

	created, err := f.svc.Create(ctx, core.BuildingCreate{
		Price:        ptr32(0),
		Rooms:        ptr(0.0),
		EstateTypeID: f.house,
		OfferID:      f.forSale,
		CityPartID:   f.centar,
	})
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		errs := make(chan error, 2)
		go func() {
			_, err := f.svc.Update(ctx, created.ID, core.BuildingUpdate{Price: core.Value(int32(i))})
			errs <- err
		}()
		go func() {
			_, err := f.svc.Update(ctx, created.ID, core.BuildingUpdate{Rooms: core.Value(float64(i))})
			errs <- err
		}()
		require.NoError(t, <-errs)
		require.NoError(t, <-errs)

		got, err := f.svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(i), *got.Price)
		assert.Equal(t, float64(i), *got.Rooms)
	}
}
