// Package query turns listing parameters (equality filters, a numeric range,
// free text, sort and page window) into a MongoDB filter, sort order and
// skip/limit pair.
package query

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
)

// Range is an inclusive bound on a numeric field. Nil ends are open.
type Range struct {
	Field    string
	Min, Max *float64
}

// SortConfig lists the sortable fields of a collection and the default
// order. Fields are written as "name" (ascending) or "-name" (descending).
type SortConfig struct {
	Default string
	Allowed []string
}

// PageSizeConfig bounds the page size of one endpoint. Param names the
// query parameter in error reports and defaults to "page_size".
type PageSizeConfig struct {
	Param   string
	Default int
	Min     int
	Max     int
}

// Listing describes one list request.
type Listing struct {
	Equal bson.D
	Range *Range
	Text  string

	Sort  string
	Sorts SortConfig
	// PinnedField, when set, is sorted descending ahead of the requested order.
	PinnedField string

	Page      int
	PageSize  int
	PageSizes PageSizeConfig
}

// Plan is the database-facing result of Build.
type Plan struct {
	Filter   bson.D
	Sort     bson.D
	Skip     int64
	Limit    int64
	Page     int
	PageSize int
}

// Build validates the listing and produces a Plan. A zero Page or PageSize
// means "use the default".
func (l Listing) Build() (Plan, error) {
	page := l.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return Plan{}, apperr.Validation("", apperr.FieldError{Field: "page", Message: "must be greater than or equal to 1"})
	}

	size := l.PageSize
	if size == 0 {
		size = l.PageSizes.Default
	}
	param := l.PageSizes.Param
	if param == "" {
		param = "page_size"
	}
	if size < l.PageSizes.Min || (l.PageSizes.Max > 0 && size > l.PageSizes.Max) {
		return Plan{}, apperr.Validation("", apperr.FieldError{
			Field:   param,
			Message: fmt.Sprintf("must be between %d and %d", l.PageSizes.Min, l.PageSizes.Max),
		})
	}
	if size < 1 {
		return Plan{}, apperr.Validation("", apperr.FieldError{Field: param, Message: "must be greater than or equal to 1"})
	}
	// skip must fit in an int64
	if int64(page-1) > math.MaxInt64/int64(size) {
		return Plan{}, apperr.Validation("", apperr.FieldError{Field: "page", Message: "is too large"})
	}

	filter, err := l.filter()
	if err != nil {
		return Plan{}, err
	}
	sort, err := l.sort()
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Filter:   filter,
		Sort:     sort,
		Skip:     int64(page-1) * int64(size),
		Limit:    int64(size),
		Page:     page,
		PageSize: size,
	}, nil
}

func (l Listing) filter() (bson.D, error) {
	filter := bson.D{}
	filter = append(filter, l.Equal...)

	if r := l.Range; r != nil && (r.Min != nil || r.Max != nil) {
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return nil, apperr.BadRequest(fmt.Sprintf("min_%s must not exceed max_%s", r.Field, r.Field))
		}
		bounds := bson.D{}
		if r.Min != nil {
			bounds = append(bounds, bson.E{Key: "$gte", Value: *r.Min})
		}
		if r.Max != nil {
			bounds = append(bounds, bson.E{Key: "$lte", Value: *r.Max})
		}
		filter = append(filter, bson.E{Key: r.Field, Value: bounds})
	}

	if l.Text != "" {
		filter = append(filter, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: l.Text}}})
	}
	return filter, nil
}

func (l Listing) sort() (bson.D, error) {
	field, dir := ParseSortKey(l.Sorts.Default)
	if field == "" {
		field, dir = "created_at", -1
	}
	if raw := strings.TrimSpace(l.Sort); raw != "" {
		field, dir = ParseSortKey(raw)
		if !slices.Contains(l.Sorts.Allowed, field) {
			return nil, apperr.BadRequest(fmt.Sprintf("cannot sort by %q", field))
		}
	}

	sort := bson.D{}
	if l.PinnedField != "" {
		sort = append(sort, bson.E{Key: l.PinnedField, Value: -1})
	}
	sort = append(sort, bson.E{Key: field, Value: dir})
	if field != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: dir})
	}
	return sort, nil
}

// IDEqual returns an equality clause on a reference field holding a hex
// object id. A malformed id is a bad request.
func IDEqual(field, hex string) (bson.E, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.E{}, apperr.BadRequest(fmt.Sprintf("invalid %s", field))
	}
	return bson.E{Key: field, Value: id.Hex()}, nil
}

// ParseSortKey splits "-field" into ("field", -1) and "field" into
// ("field", 1).
func ParseSortKey(raw string) (string, int) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "-") {
		return strings.TrimSpace(raw[1:]), -1
	}
	return strings.TrimPrefix(raw, "+"), 1
}

// TotalPages returns ceil(total/pageSize).
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
