package admin

import (
	"context"

	"golang.org/x/sync/errgroup"

	"polykitchen/internal/backend"
)

// Stats are the dashboard counters.
type Stats struct {
	Dishes     int `json:"dishes"`
	Categories int `json:"categories"`
	Users      int `json:"users"`
}

type Dashboard struct {
	api backendAPI
}

// Stats counts dishes, categories and accounts concurrently.
func (d *Dashboard) Stats(ctx context.Context, cred backend.Credentials) (*Stats, error) {
	var out Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dishes, err := d.api.AdminDishes(gctx, cred)
		out.Dishes = len(dishes)
		return err
	})
	g.Go(func() error {
		cats, err := d.api.AdminCategories(gctx, cred)
		out.Categories = len(cats)
		return err
	})
	g.Go(func() error {
		users, err := d.api.AdminUsers(gctx, cred)
		out.Users = len(users)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
