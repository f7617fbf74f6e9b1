package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/model"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/repository"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/cache"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/db"
)

var errNotSupported = errors.New("not supported by memStore")

// memStore is an in-memory stand-in for the products and outbox tables.
// Writes made inside WithTx are staged and only become visible to other
// sessions after the callback returns nil and commitErr is nil.
type memStore struct {
	products []model.Product
	outbox   []repository.CreateOutboxMsgParams

	stagedProducts []model.Product
	stagedOutbox   []repository.CreateOutboxMsgParams
	inTx           bool

	txCount   int
	lookups   int
	commitErr error
	createErr error
	// conflictSkus simulates rows committed by another writer after lookup.
	conflictSkus map[string]bool
}

var (
	_ db.DB                          = (*memStore)(nil)
	_ repository.ProductRepository   = (*memProductRepo)(nil)
	_ repository.OutboxMsgRepository = (*memOutboxRepo)(nil)
)

func (m *memStore) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errNotSupported
}

func (m *memStore) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errNotSupported
}

func (m *memStore) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (m *memStore) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	m.txCount++
	m.inTx = true
	m.stagedProducts, m.stagedOutbox = nil, nil
	defer func() {
		m.inTx = false
		m.stagedProducts, m.stagedOutbox = nil, nil
	}()

	if err := txFunc(m); err != nil {
		return err
	}
	if m.commitErr != nil {
		return m.commitErr
	}

	m.products = append(m.products, m.stagedProducts...)
	m.outbox = append(m.outbox, m.stagedOutbox...)
	return nil
}

type memProductRepo struct {
	store *memStore
}

func (r *memProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *memProductRepo) visible() []model.Product {
	all := append([]model.Product{}, r.store.products...)
	if r.store.inTx {
		all = append(all, r.store.stagedProducts...)
	}
	return all
}

func (r *memProductRepo) GetProductBySku(_ context.Context, sku string) (model.Product, bool, error) {
	r.store.lookups++
	for _, p := range r.visible() {
		if p.Sku == sku {
			return p, true, nil
		}
	}
	return model.Product{}, false, nil
}

func (r *memProductRepo) CreateProduct(_ context.Context, product model.Product) (bool, error) {
	if r.store.createErr != nil {
		return false, r.store.createErr
	}
	if r.store.conflictSkus[product.Sku] {
		return false, nil
	}
	r.store.stagedProducts = append(r.store.stagedProducts, product)
	return true, nil
}

func (r *memProductRepo) ListProducts(_ context.Context, params repository.ListProductsParams) ([]model.Product, error) {
	all := r.store.products
	if params.Offset >= int64(len(all)) {
		return []model.Product{}, nil
	}
	end := params.Offset + min(params.Limit, int64(len(all))-params.Offset)
	return append([]model.Product{}, all[params.Offset:end]...), nil
}

func (r *memProductRepo) SearchProducts(_ context.Context, f model.SearchFilter) ([]model.Product, error) {
	contains := func(field *string, sub *string) bool {
		if sub == nil || *sub == "" {
			return true
		}
		return field != nil && strings.Contains(strings.ToLower(*field), strings.ToLower(*sub))
	}

	out := []model.Product{}
	for _, p := range r.store.products {
		brand := p.Brand
		switch {
		case !contains(&brand, f.Brand), !contains(p.Color, f.Color):
		case f.MinPrice != nil && p.Price < *f.MinPrice:
		case f.MaxPrice != nil && p.Price > *f.MaxPrice:
		default:
			out = append(out, p)
		}
	}
	return out, nil
}

type memOutboxRepo struct {
	store *memStore
}

func (r *memOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *memOutboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.store.stagedOutbox = append(r.store.stagedOutbox, params)
	return nil
}

func (r *memOutboxRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, errNotSupported
}

func (r *memOutboxRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return errNotSupported
}

// mapCache is a cache.Cache keeping values in memory, keyed by version.
type mapCache struct {
	version     int64
	values      map[string][]model.Product
	invalidated int
	getErr      error
	versionErr  error
}

var _ cache.Cache = (*mapCache)(nil)

func newMapCache() *mapCache {
	return &mapCache{values: map[string][]model.Product{}}
}

func (c *mapCache) entry(version int64, key string) string {
	return fmt.Sprintf("%d:%s", version, key)
}

func (c *mapCache) Version(context.Context) (int64, error) {
	return c.version, c.versionErr
}

func (c *mapCache) Get(_ context.Context, version int64, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.values[c.entry(version, key)]
	if !ok {
		return false, nil
	}
	*(dst.(*[]model.Product)) = v
	return true, nil
}

func (c *mapCache) Set(_ context.Context, version int64, key string, value any) error {
	c.values[c.entry(version, key)] = value.([]model.Product)
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.invalidated++
	c.version++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
