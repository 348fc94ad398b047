package core

import (
	"context"
	"time"
)

// Lookup is a named reference row: estate type, offer, amenity, heating or state.
type Lookup struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// City belongs to a State.
type City struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	State Lookup `json:"state"`
}

// CityPart belongs to a City. Names are unique per city.
type CityPart struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	City City   `json:"city"`
}

// BuildingFloor is the optional one-to-one floor record of a building.
type BuildingFloor struct {
	BuildingID int32   `json:"building_id"`
	FloorLevel *string `json:"floor_level"`
	FloorTotal *int32  `json:"floor_total"`
}

// BuildingRecord holds the columns stored on the building row itself.
// Nil pointers are NULL columns.
type BuildingRecord struct {
	SquareFootage    *float64 `json:"square_footage"`
	ConstructionYear *int32   `json:"construction_year"`
	LandArea         *float64 `json:"land_area"`
	Registration     *bool    `json:"registration"`
	Rooms            *float64 `json:"rooms"`
	Bathrooms        *int32   `json:"bathrooms"`
	Parking          *bool    `json:"parking"`
	Price            *int32   `json:"price"`

	EstateTypeID int32 `json:"-"`
	OfferID      int32 `json:"-"`
	CityPartID   int32 `json:"-"`
}

// Building is the hydrated read model returned by the API.
type Building struct {
	ID int32 `json:"id"`
	BuildingRecord

	EstateType Lookup         `json:"estate_type"`
	Offer      Lookup         `json:"offer"`
	CityPart   *CityPart      `json:"city_part"`
	Amenities  []Lookup       `json:"amenities"`
	Heatings   []Lookup       `json:"heatings"`
	Floor      *BuildingFloor `json:"floor"`
}

// FloorInput is the writable part of a BuildingFloor.
type FloorInput struct {
	FloorLevel *string `json:"floor_level"`
	FloorTotal *int32  `json:"floor_total" validate:"omitempty,gte=0"`
}

// BuildingCreate is the input of Service.Create.
type BuildingCreate struct {
	SquareFootage    *float64 `json:"square_footage" validate:"omitempty,gte=0"`
	ConstructionYear *int32   `json:"construction_year" validate:"omitempty,gte=0"`
	LandArea         *float64 `json:"land_area" validate:"omitempty,gte=0"`
	Registration     *bool    `json:"registration"`
	Rooms            *float64 `json:"rooms" validate:"omitempty,gte=0"`
	Bathrooms        *int32   `json:"bathrooms" validate:"omitempty,gte=0"`
	Parking          *bool    `json:"parking"`
	Price            *int32   `json:"price" validate:"omitempty,gte=0"`

	EstateTypeID int32 `json:"estate_type_id" validate:"required,gt=0"`
	OfferID      int32 `json:"offer_id" validate:"required,gt=0"`
	CityPartID   int32 `json:"city_part_id" validate:"required,gt=0"`

	AmenityIDs []int32 `json:"amenity_ids" validate:"omitempty,dive,gt=0"`
	HeatingIDs []int32 `json:"heating_ids" validate:"omitempty,dive,gt=0"`

	Floor *FloorInput `json:"floor"`
}

// BuildingUpdate is the input of Service.Update. Only fields with Set are
// applied; a Set field without Valid writes NULL (or clears the association).
type BuildingUpdate struct {
	SquareFootage    Field[float64] `json:"square_footage"`
	ConstructionYear Field[int32]   `json:"construction_year"`
	LandArea         Field[float64] `json:"land_area"`
	Registration     Field[bool]    `json:"registration"`
	Rooms            Field[float64] `json:"rooms"`
	Bathrooms        Field[int32]   `json:"bathrooms"`
	Parking          Field[bool]    `json:"parking"`
	Price            Field[int32]   `json:"price"`

	EstateTypeID Field[int32] `json:"estate_type_id"`
	OfferID      Field[int32] `json:"offer_id"`
	CityPartID   Field[int32] `json:"city_part_id"`

	AmenityIDs Field[[]int32] `json:"amenity_ids"`
	HeatingIDs Field[[]int32] `json:"heating_ids"`

	Floor Field[FloorInput] `json:"floor"`
}

// BuildingFilter holds the optional search predicates. Nil means "not filtered".
type BuildingFilter struct {
	MinSqft    *int
	MaxSqft    *int
	Parking    *bool
	State      *string
	EstateType *string
}

// SearchQuery is a filter plus the requested page.
type SearchQuery struct {
	BuildingFilter
	Page int
	Size int
}

// SearchResult is one page of buildings with pagination metadata.
type SearchResult struct {
	Buildings []Building `json:"buildings"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	Size      int        `json:"size"`
	Pages     int        `json:"pages"`
}

// ReferenceIDs are the fixed foreign keys attached to ingested buildings.
type ReferenceIDs struct {
	OfferID      int32
	EstateTypeID int32
	CityPartID   int32
}

// FileResult describes the outcome of importing one listing file.
type FileResult struct {
	FileName    string        `json:"file_name"`
	Destination string        `json:"destination"`
	Inserted    int64         `json:"inserted"`
	Skipped     int           `json:"skipped"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
}

// RunSummary contains the totals of one ingestion run.
type RunSummary struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
	FilesProcessed int           `json:"files_processed"`
	FilesErrored   int           `json:"files_errored"`
	RowsInserted   int64         `json:"rows_inserted"`
	RowsSkipped    int64         `json:"rows_skipped"`
	Files          []FileResult  `json:"files"`
}

// HeaderIndex maps column names (lowercase) to their position in the row.
type HeaderIndex map[string]int

// Store opens units of work against the persistent store. Each call owns one
// transaction: fn returning nil commits, anything else rolls back.
type Store interface {
	// ReadTx runs fn in a repeatable-read, read-only transaction so that
	// every query inside observes the same snapshot.
	ReadTx(ctx context.Context, fn func(Repository) error) error
	WriteTx(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
}

// Repository is the set of queries available inside a unit of work.
type Repository interface {
	// GetBuildings returns hydrated buildings ordered by id. Unknown ids are omitted.
	GetBuildings(ctx context.Context, ids []int32) ([]Building, error)
	CountBuildings(ctx context.Context, f BuildingFilter) (int64, error)
	ListBuildingIDs(ctx context.Context, f BuildingFilter, limit, offset int) ([]int32, error)

	InsertBuilding(ctx context.Context, rec BuildingRecord) (int32, error)
	UpdateBuilding(ctx context.Context, id int32, rec BuildingRecord) error
	// LockBuilding blocks concurrent writers of the row until the transaction
	// ends. A missing row is a *NotFoundError.
	LockBuilding(ctx context.Context, id int32) error
	CopyBuildings(ctx context.Context, recs []BuildingRecord) (int64, error)

	ExistingAmenityIDs(ctx context.Context, ids []int32) ([]int32, error)
	ExistingHeatingIDs(ctx context.Context, ids []int32) ([]int32, error)
	SetBuildingAmenities(ctx context.Context, buildingID int32, ids []int32) error
	SetBuildingHeatings(ctx context.Context, buildingID int32, ids []int32) error

	UpsertBuildingFloor(ctx context.Context, buildingID int32, floor FloorInput) error
	DeleteBuildingFloor(ctx context.Context, buildingID int32) error

	// Lookups return a *NotFoundError when the named row does not exist.
	OfferIDByName(ctx context.Context, name string) (int32, error)
	EstateTypeIDByName(ctx context.Context, name string) (int32, error)
	CityPartIDByName(ctx context.Context, city, part string) (int32, error)
}
