package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRecord() BuildingRecord {
	return BuildingRecord{EstateTypeID: 1, OfferID: 1, CityPartID: 1}
}

func TestService_Get(t *testing.T) {
	store := newMemStore()
	rec := baseRecord()
	rec.Price = ptr(int32(100))
	id := store.seed(rec)
	svc := NewService(store)

	b, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, b.ID)
	assert.Equal(t, "house", b.EstateType.Name)
	assert.Equal(t, "for sale", b.Offer.Name)
	require.NotNil(t, b.CityPart)
	assert.Equal(t, "Croatia", b.CityPart.City.State.Name)

	_, err = svc.Get(context.Background(), 999)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "building", nf.Entity)
	assert.Equal(t, int32(999), nf.ID)
}

func TestService_Create(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	b, err := svc.Create(context.Background(), BuildingCreate{
		Price:        ptr(int32(250000)),
		Rooms:        ptr(3.5),
		EstateTypeID: 2,
		OfferID:      1,
		CityPartID:   3,
		AmenityIDs:   []int32{2, 1, 2},
		HeatingIDs:   []int32{1},
		Floor:        &FloorInput{FloorLevel: ptr("2"), FloorTotal: ptr(int32(6))},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(250000), *b.Price)
	assert.Equal(t, "apartment", b.EstateType.Name)
	assert.Equal(t, []Lookup{{ID: 1, Name: "pool"}, {ID: 2, Name: "garden"}}, b.Amenities)
	assert.Equal(t, []Lookup{{ID: 1, Name: "gas"}}, b.Heatings)
	require.NotNil(t, b.Floor)
	assert.Equal(t, int32(6), *b.Floor.FloorTotal)
}

func TestService_Create_MissingAssociations(t *testing.T) {
	tests := []struct {
		name       string
		amenities  []int32
		heatings   []int32
		wantEntity string
		wantIDs    []int32
	}{
		{"unknown amenities", []int32{1, 40, 41}, nil, "amenity", []int32{40, 41}},
		{"unknown heating", []int32{1}, []int32{2, 9}, "heating", []int32{9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			svc := NewService(store)

			_, err := svc.Create(context.Background(), BuildingCreate{
				EstateTypeID: 1, OfferID: 1, CityPartID: 1,
				AmenityIDs: tt.amenities,
				HeatingIDs: tt.heatings,
			})

			var nf *NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, tt.wantEntity, nf.Entity)
			assert.Equal(t, tt.wantIDs, nf.IDs)
			assert.Equal(t, 0, store.count(), "nothing may be persisted")
			assert.Empty(t, store.bAmen)
		})
	}
}

func TestService_Create_IntegrityViolation(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	_, err := svc.Create(context.Background(), BuildingCreate{EstateTypeID: 1, OfferID: 77, CityPartID: 1})

	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "building_offer_id_fkey", ie.Constraint)
	assert.NotEmpty(t, ie.Hint)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, 0, store.count())
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newMemStore())

	_, err := svc.Create(context.Background(), BuildingCreate{OfferID: 1, CityPartID: 1})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "estate_type_id", ve.Field)

	_, err = svc.Create(context.Background(), BuildingCreate{EstateTypeID: 1, OfferID: 1, CityPartID: 1, Price: ptr(int32(-5))})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price", ve.Field)
}

func TestService_Update_OnlyPresentFields(t *testing.T) {
	store := newMemStore()
	rec := baseRecord()
	rec.Price = ptr(int32(100))
	rec.Rooms = ptr(4.0)
	rec.Parking = ptr(true)
	rec.SquareFootage = ptr(120.5)
	id := store.seed(rec)
	store.bAmen[id] = []int32{3}
	svc := NewService(store)

	var in BuildingUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"price": 200}`), &in))

	b, err := svc.Update(context.Background(), id, in)
	require.NoError(t, err)

	assert.Equal(t, int32(200), *b.Price)
	assert.Equal(t, 4.0, *b.Rooms)
	assert.True(t, *b.Parking)
	assert.Equal(t, 120.5, *b.SquareFootage)
	assert.Equal(t, []Lookup{{ID: 3, Name: "elevator"}}, b.Amenities)
	assert.Equal(t, []int32{id}, store.locks, "row is locked before it is read")
}

func TestService_Update_NullAndReplace(t *testing.T) {
	store := newMemStore()
	rec := baseRecord()
	rec.Parking = ptr(true)
	id := store.seed(rec)
	store.bAmen[id] = []int32{1, 2}
	store.floors[id] = FloorInput{FloorLevel: ptr("1")}
	svc := NewService(store)

	var in BuildingUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"parking": null, "amenity_ids": [3], "floor": null, "city_part_id": 2}`), &in))

	b, err := svc.Update(context.Background(), id, in)
	require.NoError(t, err)

	assert.Nil(t, b.Parking)
	assert.Equal(t, []Lookup{{ID: 3, Name: "elevator"}}, b.Amenities)
	assert.Nil(t, b.Floor)
	assert.Equal(t, int32(2), b.CityPartID)
}

func TestService_Update_RejectsMissingAssociations(t *testing.T) {
	store := newMemStore()
	rec := baseRecord()
	rec.Price = ptr(int32(100))
	id := store.seed(rec)
	store.bAmen[id] = []int32{1}
	svc := NewService(store)

	_, err := svc.Update(context.Background(), id, BuildingUpdate{
		Price:      Value(int32(999)),
		AmenityIDs: Value([]int32{2, 50}),
	})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []int32{50}, nf.IDs)

	b, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int32(100), *b.Price, "rejected update must not change scalars")
	assert.Equal(t, []Lookup{{ID: 1, Name: "pool"}}, b.Amenities, "rejected update must not change associations")
}

func TestService_Update_Errors(t *testing.T) {
	store := newMemStore()
	id := store.seed(baseRecord())
	svc := NewService(store)

	_, err := svc.Update(context.Background(), 404, BuildingUpdate{Price: Value(int32(1))})
	assert.True(t, IsNotFound(err))

	_, err = svc.Update(context.Background(), id, BuildingUpdate{OfferID: Null[int32]()})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "offer_id", ve.Field)

	_, err = svc.Update(context.Background(), id, BuildingUpdate{EstateTypeID: Value(int32(99))})
	var ie *IntegrityError
	assert.ErrorAs(t, err, &ie)
}

func TestService_Search(t *testing.T) {
	store := newMemStore()
	for i := range 25 {
		rec := baseRecord()
		rec.SquareFootage = ptr(float64(50 + i*10)) // 50..290
		rec.Parking = ptr(i%2 == 0)
		if i >= 20 {
			rec.CityPartID = 3 // Serbia
			rec.EstateTypeID = 2
		}
		store.seed(rec)
	}
	svc := NewService(store)
	ctx := context.Background()

	t.Run("unfiltered first page", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(25), res.Total)
		assert.Equal(t, 3, res.Pages)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 10, res.Size)
		require.Len(t, res.Buildings, 10)
		for i := 1; i < len(res.Buildings); i++ {
			assert.Less(t, res.Buildings[i-1].ID, res.Buildings[i].ID)
		}
	})

	t.Run("page beyond last clamps", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{Page: 9, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Page)
		assert.Len(t, res.Buildings, 5)
	})

	t.Run("sqft range", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{BuildingFilter: BuildingFilter{MinSqft: ptr(100), MaxSqft: ptr(150)}, Size: 100})
		require.NoError(t, err)
		assert.Equal(t, int64(6), res.Total)
		for _, b := range res.Buildings {
			assert.GreaterOrEqual(t, *b.SquareFootage, 100.0)
			assert.LessOrEqual(t, *b.SquareFootage, 150.0)
		}
	})

	t.Run("combined filters", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{BuildingFilter: BuildingFilter{
			State:      ptr("Serbia"),
			EstateType: ptr("apartment"),
			Parking:    ptr(true),
		}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Total) // i = 20, 22, 24
	})

	t.Run("no matches", func(t *testing.T) {
		res, err := svc.Search(ctx, SearchQuery{Page: 4, BuildingFilter: BuildingFilter{State: ptr("Atlantis")}})
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Total)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 1, res.Pages)
		assert.NotNil(t, res.Buildings)
		assert.Empty(t, res.Buildings)
	})

	t.Run("idempotent", func(t *testing.T) {
		q := SearchQuery{Page: 2, Size: 7, BuildingFilter: BuildingFilter{MinSqft: ptr(60)}}
		a, err := svc.Search(ctx, q)
		require.NoError(t, err)
		b, err := svc.Search(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("invalid range never touches store", func(t *testing.T) {
		before := store.readTxs
		_, err := svc.Search(ctx, SearchQuery{BuildingFilter: BuildingFilter{MinSqft: ptr(10), MaxSqft: ptr(5)}})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, before, store.readTxs)
	})
}

func TestService_BulkCreate(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	n, err := svc.BulkCreate(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, store.writeTxs)

	n, err = svc.BulkCreate(context.Background(), []BuildingRecord{baseRecord(), baseRecord()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, store.count())

	store.copyErr = errors.New("connection reset by peer")
	_, err = svc.BulkCreate(context.Background(), []BuildingRecord{baseRecord()})
	require.Error(t, err)
	assert.Equal(t, 2, store.count())
}

func TestService_ResolveReferences(t *testing.T) {
	svc := NewService(newMemStore())

	refs, err := svc.ResolveReferences(context.Background(), "for sale", "house", "Unknown", "Unknown")
	require.NoError(t, err)
	assert.Equal(t, ReferenceIDs{OfferID: 1, EstateTypeID: 1, CityPartID: 2}, refs)

	_, err = svc.ResolveReferences(context.Background(), "for sale", "castle", "Unknown", "Unknown")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "estate type", nf.Entity)
}
