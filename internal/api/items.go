package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gobeyondidentity/puretodo/pkg/store"
)

// itemsRepository serves items of the lists visible to the caller, either
// flat (/api/items) or scoped to one list (/api/lists/{id}/items).
type itemsRepository struct {
	baseRepository
	store *store.Store
}

// query builds the item criteria from the route and where[...] parameters.
// A list id in the path takes precedence over where[listId].
func (r itemsRepository) query(c Call) (store.ItemQuery, error) {
	var q store.ItemQuery

	if v := c.Where.Get("listId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return q, fmt.Errorf("where[listId] must be a positive integer: %w", store.ErrInvalid)
		}
		q.ListID = &id
	}
	if v := c.Where.Get("finished"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("where[finished] must be a boolean: %w", store.ErrInvalid)
		}
		q.Finished = &b
	}

	if scoped, ok := c.ID.(ListItemID); ok {
		listID := scoped.ListID
		q.ListID = &listID
	}
	return q, nil
}

// resolve returns the item addressed by id, checking that a list-scoped id
// names an item of that list.
func (r itemsRepository) resolve(ctx context.Context, c Call) (*store.Item, error) {
	var listID, id int64
	switch v := c.ID.(type) {
	case PlainID:
		id = v.ID
	case ListItemID:
		listID, id = v.ListID, v.ID
	}
	if id == 0 {
		return nil, store.ErrNotFound
	}

	item, err := r.store.GetItem(ctx, c.callerID(), id)
	if err != nil {
		return nil, err
	}
	if listID != 0 && item.ListID != listID {
		return nil, store.ErrNotFound
	}
	return item, nil
}

func (r itemsRepository) Index(ctx context.Context, c Call) (any, error) {
	q, err := r.query(c)
	if err != nil {
		return nil, err
	}
	items, err := r.store.ListItems(ctx, c.callerID(), q)
	if err != nil {
		return nil, err
	}
	views := make([]itemView, 0, len(items))
	for _, i := range items {
		views = append(views, toItemView(i))
	}
	return views, nil
}

func (r itemsRepository) Read(ctx context.Context, c Call) (any, error) {
	item, err := r.resolve(ctx, c)
	if err != nil {
		return nil, err
	}
	return toItemView(item), nil
}

func (r itemsRepository) Create(ctx context.Context, c Call) (any, error) {
	var in itemCreateRequest
	if err := decodeBody(c.Body, "items.create", &in); err != nil {
		return nil, err
	}
	if scoped, ok := c.ID.(ListItemID); ok {
		in.ListID = scoped.ListID
	}
	if in.ListID == 0 {
		return nil, fmt.Errorf("listId is required: %w", store.ErrInvalid)
	}

	item, err := r.store.CreateItem(ctx, c.callerID(), store.NewItem{
		ListID:   in.ListID,
		Title:    in.Title,
		Priority: in.Priority,
		Finished: in.Finished,
	})
	if err != nil {
		return nil, err
	}
	return toItemView(item), nil
}

func (r itemsRepository) Update(ctx context.Context, c Call) (any, error) {
	current, err := r.resolve(ctx, c)
	if err != nil {
		return nil, err
	}
	var in itemUpdateRequest
	if err := decodeBody(c.Body, "items.update", &in); err != nil {
		return nil, err
	}

	item, err := r.store.UpdateItem(ctx, c.callerID(), current.ID, store.ItemPatch{
		ListID:   in.ListID,
		Title:    in.Title,
		Priority: in.Priority,
		Finished: in.Finished,
	})
	if err != nil {
		return nil, err
	}
	return toItemView(item), nil
}

// Delete removes one item, or with no item id every item matching the
// criteria of one list (for example where[finished]=true to clear finished
// items).
func (r itemsRepository) Delete(ctx context.Context, c Call) error {
	if !c.ID.IsZero() {
		item, err := r.resolve(ctx, c)
		if err != nil {
			return err
		}
		return r.store.DeleteItem(ctx, c.callerID(), item.ID)
	}

	q, err := r.query(c)
	if err != nil {
		return err
	}
	_, err = r.store.DeleteItems(ctx, c.callerID(), q)
	return err
}
