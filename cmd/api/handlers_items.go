package main

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/social-marketplace/internal/apperr"
	"github.com/PaulBabatuyi/social-marketplace/internal/data"
	"github.com/PaulBabatuyi/social-marketplace/internal/normalize"
	"github.com/PaulBabatuyi/social-marketplace/internal/query"
)

var (
	itemSorts = query.SortConfig{
		Default: "-created_at",
		Allowed: []string{"title", "price", "created_at", "updated_at", "category", "location"},
	}
	itemPageSizes = query.PageSizeConfig{Param: "limit", Default: 10, Min: 1, Max: 100}
)

type createItemRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=100"`
	Description string   `json:"description" validate:"required,min=10,max=2000"`
	Price       float64  `json:"price" validate:"gt=0"`
	Category    string   `json:"category" validate:"required,oneof=electronics clothing home sports hobbies other"`
	Location    string   `json:"location" validate:"required,min=1,max=100"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
}

type updateItemRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,min=10,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Category    *string  `json:"category" validate:"omitempty,oneof=electronics clothing home sports hobbies other"`
	Location    *string  `json:"location" validate:"omitempty,min=1,max=100"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
	IsActive    *bool    `json:"is_active"`
}

// roundedPrice rounds to cents and rejects prices that round to zero.
func roundedPrice(p float64) (float64, error) {
	p = data.RoundPrice(p)
	if p <= 0 {
		return 0, apperr.Validation("", apperr.FieldError{Field: "price", Message: "must be greater than 0"})
	}
	return p, nil
}

// itemOr404 fetches an item by id, mapping a miss to NotFound.
func (s *Server) itemOr404(r *http.Request, id bson.ObjectID) (*data.Item, error) {
	it, err := s.items.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, apperr.NotFound("item not found")
		}
		return nil, err
	}
	return it, nil
}

// ownedItem runs the path id, fetch and ownership checks shared by the
// item mutations.
func (s *Server) ownedItem(r *http.Request, action string) (*data.Item, error) {
	caller, err := requireCaller(r)
	if err != nil {
		return nil, err
	}
	id, err := pathID(r, "itemID", "item")
	if err != nil {
		return nil, err
	}
	it, err := s.itemOr404(r, id)
	if err != nil {
		return nil, err
	}
	if it.Seller != caller {
		return nil, apperr.Forbidden("you are not allowed to " + action + " this item")
	}
	return it, nil
}

// createItem lists a new item for sale by the caller.
func (s *Server) createItem(w http.ResponseWriter, r *http.Request) error {
	caller, err := requireCaller(r)
	if err != nil {
		return err
	}
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	price, err := roundedPrice(req.Price)
	if err != nil {
		return err
	}

	it := &data.Item{
		Title:       req.Title,
		Description: req.Description,
		Price:       price,
		Category:    req.Category,
		Location:    req.Location,
		Images:      req.Images,
		Seller:      caller,
		IsActive:    true,
		CreatedAt:   s.now(),
	}
	if it.Images == nil {
		it.Images = []string{}
	}
	if err := s.items.Create(r.Context(), it); err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, it)
	return nil
}

// listItems pages through active items with optional text search, category,
// price range and seller filters.
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	l := query.Listing{
		Equal:     bson.D{{Key: "is_active", Value: true}},
		Text:      normalize.Search(q.Get("search")),
		Sort:      q.Get("sort"),
		Sorts:     itemSorts,
		PageSizes: itemPageSizes,
	}

	if c := strings.TrimSpace(q.Get("category")); c != "" {
		if !slices.Contains(data.ItemCategories, c) {
			return apperr.BadRequest("invalid category")
		}
		l.Equal = append(l.Equal, bson.E{Key: "category", Value: c})
	}
	if seller := strings.TrimSpace(q.Get("seller")); seller != "" {
		e, err := query.IDEqual("seller", seller)
		if err != nil {
			return err
		}
		l.Equal = append(l.Equal, e)
	}

	minPrice, err := queryFloat(r, "min_price")
	if err != nil {
		return err
	}
	maxPrice, err := queryFloat(r, "max_price")
	if err != nil {
		return err
	}
	if minPrice != nil || maxPrice != nil {
		l.Range = &query.Range{Field: "price", Min: minPrice, Max: maxPrice}
	}

	if l.Page, err = queryPositive(r, "page"); err != nil {
		return err
	}
	if l.PageSize, err = queryPositive(r, "limit"); err != nil {
		return err
	}

	plan, err := l.Build()
	if err != nil {
		return err
	}
	items, total, err := s.items.List(r.Context(), plan)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, itemsPage{
		Items:       items,
		TotalItems:  total,
		TotalPages:  query.TotalPages(total, plan.PageSize),
		CurrentPage: plan.Page,
	})
	return nil
}

// getItem returns an item by id, including deactivated ones.
func (s *Server) getItem(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "itemID", "item")
	if err != nil {
		return err
	}
	it, err := s.itemOr404(r, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, it)
	return nil
}

// updateItem applies a partial update from the seller.
func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) error {
	it, err := s.ownedItem(r, "modify")
	if err != nil {
		return err
	}
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	changed := false
	setString := func(dst *string, v *string) {
		if v != nil && *v != *dst {
			*dst = *v
			changed = true
		}
	}
	setString(&it.Title, req.Title)
	setString(&it.Description, req.Description)
	setString(&it.Category, req.Category)
	setString(&it.Location, req.Location)
	if req.Price != nil {
		price, err := roundedPrice(*req.Price)
		if err != nil {
			return err
		}
		if price != it.Price {
			it.Price = price
			changed = true
		}
	}
	if req.Images != nil && !slices.Equal(req.Images, it.Images) {
		it.Images = req.Images
		changed = true
	}
	if req.IsActive != nil && *req.IsActive != it.IsActive {
		it.IsActive = *req.IsActive
		changed = true
	}

	if changed {
		now := s.now()
		it.UpdatedAt = &now
		if err := s.items.Update(r.Context(), it); err != nil {
			return err
		}
	}
	writeJSON(w, http.StatusOK, it)
	return nil
}

// deleteItem soft-deletes an item: it leaves listings but stays readable by
// id.
func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) error {
	it, err := s.ownedItem(r, "delete")
	if err != nil {
		return err
	}
	if it.IsActive {
		if err := s.items.Deactivate(r.Context(), it.ID, s.now()); err != nil {
			return err
		}
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
