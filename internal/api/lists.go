package api

import (
	"context"

	"github.com/gobeyondidentity/puretodo/pkg/store"
)

// listsRepository serves the caller's own lists and every shared list.
type listsRepository struct {
	baseRepository
	store *store.Store
}

func (r listsRepository) Index(ctx context.Context, c Call) (any, error) {
	lists, err := r.store.ListLists(ctx, c.callerID())
	if err != nil {
		return nil, err
	}
	views := make([]listView, 0, len(lists))
	for _, l := range lists {
		views = append(views, toListView(l))
	}
	return views, nil
}

func (r listsRepository) Read(ctx context.Context, c Call) (any, error) {
	id, err := plainID(c.ID)
	if err != nil {
		return nil, err
	}
	l, err := r.store.GetList(ctx, c.callerID(), id)
	if err != nil {
		return nil, err
	}
	return toListView(l), nil
}

func (r listsRepository) Create(ctx context.Context, c Call) (any, error) {
	if _, err := plainID(c.ID); err != nil {
		return nil, err
	}
	var in listCreateRequest
	if err := decodeBody(c.Body, "lists.create", &in); err != nil {
		return nil, err
	}
	l, err := r.store.CreateList(ctx, c.callerID(), store.NewList{
		Name:     in.Name,
		Shared:   in.Shared,
		Priority: in.Priority,
	})
	if err != nil {
		return nil, err
	}
	return toListView(l), nil
}

func (r listsRepository) Update(ctx context.Context, c Call) (any, error) {
	id, err := plainID(c.ID)
	if err != nil || id == 0 {
		return nil, store.ErrNotFound
	}
	var in listUpdateRequest
	if err := decodeBody(c.Body, "lists.update", &in); err != nil {
		return nil, err
	}
	l, err := r.store.UpdateList(ctx, c.callerID(), id, store.ListPatch{
		Name:     in.Name,
		Shared:   in.Shared,
		Priority: in.Priority,
	})
	if err != nil {
		return nil, err
	}
	return toListView(l), nil
}

func (r listsRepository) Delete(ctx context.Context, c Call) error {
	id, err := plainID(c.ID)
	if err != nil || id == 0 {
		return store.ErrNotFound
	}
	return r.store.DeleteList(ctx, c.callerID(), id)
}
