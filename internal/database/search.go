package database

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/estates/internal/core"
)

// Joins needed by the name filters, keyed so each is added at most once.
var searchJoins = map[string]string{
	"city_part":   "JOIN city_part cp ON cp.id = b.city_part_id",
	"city":        "JOIN city c ON c.id = cp.city_id",
	"state":       "JOIN state s ON s.id = c.state_id",
	"estate_type": "JOIN estate_type et ON et.id = b.estate_type_id",
}

// searchBuilder composes the FROM/WHERE part of the building search.
// Conditions are AND-ed and numbered $1..$n in the order they are added.
type searchBuilder struct {
	joins      []string
	joined     map[string]bool
	conditions []string
	args       []interface{}
	argID      int
}

func newSearchBuilder() *searchBuilder {
	return &searchBuilder{
		joined: make(map[string]bool),
		argID:  1,
	}
}

func (sb *searchBuilder) join(names ...string) {
	for _, name := range names {
		if sb.joined[name] {
			continue
		}
		sb.joined[name] = true
		sb.joins = append(sb.joins, searchJoins[name])
	}
}

func (sb *searchBuilder) addCondition(condition, column string, arg interface{}) {
	sb.conditions = append(sb.conditions, fmt.Sprintf(condition, column, sb.argID))
	sb.args = append(sb.args, arg)
	sb.argID++
}

// from returns "FROM building b [JOIN ...] [WHERE ...]".
func (sb *searchBuilder) from() string {
	var b strings.Builder
	b.WriteString("FROM building b")
	for _, j := range sb.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if len(sb.conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(sb.conditions, " AND "))
	}
	return b.String()
}

// applyFilter adds one predicate per present filter field.
func applyFilter(f core.BuildingFilter) *searchBuilder {
	sb := newSearchBuilder()

	if f.MinSqft != nil {
		sb.addCondition("%s >= $%d", "b.square_footage", float64(*f.MinSqft))
	}
	if f.MaxSqft != nil {
		sb.addCondition("%s <= $%d", "b.square_footage", float64(*f.MaxSqft))
	}
	if f.Parking != nil {
		sb.addCondition("%s = $%d", "b.parking", *f.Parking)
	}
	if f.State != nil {
		sb.join("city_part", "city", "state")
		sb.addCondition("lower(%s) = lower($%d)", "s.name", *f.State)
	}
	if f.EstateType != nil {
		sb.join("estate_type")
		sb.addCondition("lower(%s) = lower($%d)", "et.name", *f.EstateType)
	}

	return sb
}

// countQuery returns the COUNT(*) statement for f.
func countQuery(f core.BuildingFilter) (string, []interface{}) {
	sb := applyFilter(f)
	return "SELECT COUNT(*) " + sb.from(), sb.args
}

// pageQuery returns the statement selecting one page of matching ids in id order.
func pageQuery(f core.BuildingFilter, limit, offset int) (string, []interface{}) {
	sb := applyFilter(f)
	query := fmt.Sprintf("SELECT b.id %s ORDER BY b.id LIMIT $%d OFFSET $%d", sb.from(), sb.argID, sb.argID+1)
	return query, append(sb.args, limit, offset)
}
