package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"biomarket/internal/domain"
	clientrepo "biomarket/internal/repository/client"
	farmrepo "biomarket/internal/repository/farm"
	offerrepo "biomarket/internal/repository/offer"
	productrepo "biomarket/internal/repository/product"
)

// Memory is an in-process Store. SaveChanges applies a session's writes to a
// copy of the tables and swaps it in only when every write succeeded.
type Memory struct {
	mu  sync.RWMutex
	t   *tables
	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		t: &tables{
			farms:    map[int64]domain.Farm{},
			products: map[int64]domain.Product{},
			offers:   map[int64]domain.Offer{},
			clients:  map[int64]domain.Client{},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Session() Data {
	return &memSession{m: m}
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

type tables struct {
	farms    map[int64]domain.Farm
	products map[int64]domain.Product
	offers   map[int64]domain.Offer
	clients  map[int64]domain.Client

	farmSeq, productSeq, offerSeq, clientSeq int64
}

func (t *tables) clone() *tables {
	out := *t
	out.farms = make(map[int64]domain.Farm, len(t.farms))
	for k, v := range t.farms {
		out.farms[k] = v
	}
	out.products = make(map[int64]domain.Product, len(t.products))
	for k, v := range t.products {
		out.products[k] = v
	}
	out.offers = make(map[int64]domain.Offer, len(t.offers))
	for k, v := range t.offers {
		out.offers[k] = v
	}
	out.clients = make(map[int64]domain.Client, len(t.clients))
	for k, v := range t.clients {
		out.clients[k] = v
	}
	return &out
}

type memOp struct {
	apply    func(t *tables) error
	onCommit func()
}

type memSession struct {
	m   *Memory
	mu  sync.Mutex
	ops []memOp
}

func (s *memSession) Farms() farmrepo.Repository       { return memFarms{s} }
func (s *memSession) Products() productrepo.Repository { return memProducts{s} }
func (s *memSession) Offers() offerrepo.Repository     { return memOffers{s} }
func (s *memSession) Clients() clientrepo.Repository   { return memClients{s} }

func (s *memSession) stage(op memOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

func (s *memSession) SaveChanges(ctx context.Context) error {
	s.mu.Lock()
	ops := s.ops
	s.ops = nil
	s.mu.Unlock()
	if len(ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	next := s.m.t.clone()
	for _, op := range ops {
		if err := op.apply(next); err != nil {
			return err
		}
	}
	s.m.t = next
	for _, op := range ops {
		if op.onCommit != nil {
			op.onCommit()
		}
	}
	return nil
}

// read runs fn against the committed tables.
func (s *memSession) read(fn func(t *tables)) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	fn(s.m.t)
}

func sortedValues[V any](m map[int64]V, keep func(V) bool) []V {
	keys := make([]int64, 0, len(m))
	for k, v := range m {
		if keep == nil || keep(v) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

type memFarms struct{ s *memSession }

func (r memFarms) All(context.Context) ([]domain.Farm, error) {
	var out []domain.Farm
	r.s.read(func(t *tables) { out = sortedValues(t.farms, nil) })
	return out, nil
}

func (r memFarms) ByID(_ context.Context, id int64) (*domain.Farm, error) {
	var (
		f  domain.Farm
		ok bool
	)
	r.s.read(func(t *tables) { f, ok = t.farms[id] })
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

func (r memFarms) ByAccount(_ context.Context, account string) (*domain.Farm, error) {
	var found []domain.Farm
	r.s.read(func(t *tables) {
		found = sortedValues(t.farms, func(f domain.Farm) bool { return f.Account == account })
	})
	if len(found) == 0 {
		return nil, domain.ErrNotFound
	}
	return &found[0], nil
}

func (r memFarms) Add(f *domain.Farm) {
	var stored domain.Farm
	r.s.stage(memOp{
		apply: func(t *tables) error {
			for _, existing := range t.farms {
				if existing.Account == f.Account {
					return fmt.Errorf("insert farm: %w", domain.ErrAlreadyExists)
				}
			}
			t.farmSeq++
			stored = *f
			stored.ID = t.farmSeq
			stored.CreatedAt = r.s.m.now()
			t.farms[stored.ID] = stored
			return nil
		},
		onCommit: func() {
			f.ID = stored.ID
			f.CreatedAt = stored.CreatedAt
		},
	})
}

type memClients struct{ s *memSession }

func (r memClients) All(context.Context) ([]domain.Client, error) {
	var out []domain.Client
	r.s.read(func(t *tables) { out = sortedValues(t.clients, nil) })
	return out, nil
}

func (r memClients) ByID(_ context.Context, id int64) (*domain.Client, error) {
	var (
		c  domain.Client
		ok bool
	)
	r.s.read(func(t *tables) { c, ok = t.clients[id] })
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r memClients) ByAccount(_ context.Context, account string) (*domain.Client, error) {
	var found []domain.Client
	r.s.read(func(t *tables) {
		found = sortedValues(t.clients, func(c domain.Client) bool { return c.Account == account })
	})
	if len(found) == 0 {
		return nil, domain.ErrNotFound
	}
	return &found[0], nil
}

func (r memClients) Add(c *domain.Client) {
	var stored domain.Client
	r.s.stage(memOp{
		apply: func(t *tables) error {
			for _, existing := range t.clients {
				if existing.Account == c.Account {
					return fmt.Errorf("insert client: %w", domain.ErrAlreadyExists)
				}
			}
			t.clientSeq++
			stored = *c
			stored.ID = t.clientSeq
			stored.CreatedAt = r.s.m.now()
			t.clients[stored.ID] = stored
			return nil
		},
		onCommit: func() {
			c.ID = stored.ID
			c.CreatedAt = stored.CreatedAt
		},
	})
}

type memProducts struct{ s *memSession }

func (r memProducts) All(context.Context) ([]domain.Product, error) {
	var out []domain.Product
	r.s.read(func(t *tables) { out = sortedValues(t.products, nil) })
	return out, nil
}

func (r memProducts) ActiveByID(_ context.Context, id int64) (*domain.Product, error) {
	var (
		p  domain.Product
		ok bool
	)
	r.s.read(func(t *tables) { p, ok = t.products[id] })
	if !ok || p.Deleted {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r memProducts) ActiveByFarm(_ context.Context, farmID int64) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.FarmID == farmID }), nil
}

func (r memProducts) ActiveByName(_ context.Context, name string) ([]domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.Name == name }), nil
}

func (r memProducts) ActiveByFarmAndName(_ context.Context, farmID int64, name string) (*domain.Product, error) {
	found := r.filter(func(p domain.Product) bool { return p.FarmID == farmID && p.Name == name })
	if len(found) == 0 {
		return nil, domain.ErrNotFound
	}
	return &found[0], nil
}

func (r memProducts) filter(keep func(domain.Product) bool) []domain.Product {
	var out []domain.Product
	r.s.read(func(t *tables) {
		out = sortedValues(t.products, func(p domain.Product) bool { return !p.Deleted && keep(p) })
	})
	return out
}

func (r memProducts) Add(p *domain.Product) {
	var stored domain.Product
	r.s.stage(memOp{
		apply: func(t *tables) error {
			if _, ok := t.farms[p.FarmID]; !ok {
				return fmt.Errorf("insert product: farm %d: %w", p.FarmID, domain.ErrNotFound)
			}
			t.productSeq++
			stored = *p
			stored.ID = t.productSeq
			stored.Deleted = false
			stored.DeletedAt = nil
			stored.CreatedAt = r.s.m.now()
			t.products[stored.ID] = stored
			return nil
		},
		onCommit: func() {
			p.ID = stored.ID
			p.CreatedAt = stored.CreatedAt
		},
	})
}

func (r memProducts) Update(p *domain.Product) {
	r.s.stage(memOp{
		apply: func(t *tables) error {
			current, ok := t.products[p.ID]
			if !ok || current.Deleted {
				return fmt.Errorf("update product %d: %w", p.ID, domain.ErrNotFound)
			}
			current.Name = p.Name
			current.Price = p.Price
			t.products[p.ID] = current
			return nil
		},
	})
}

func (r memProducts) Delete(p *domain.Product) {
	now := r.s.m.now()
	p.Deleted = true
	p.DeletedAt = &now
	r.s.stage(memOp{
		apply: func(t *tables) error {
			current, ok := t.products[p.ID]
			if !ok || current.Deleted {
				return fmt.Errorf("soft delete product %d: %w", p.ID, domain.ErrNotFound)
			}
			current.Deleted = true
			current.DeletedAt = &now
			t.products[p.ID] = current
			return nil
		},
	})
}

type memOffers struct{ s *memSession }

func (r memOffers) All(context.Context) ([]domain.Offer, error) {
	return r.query(nil, nil), nil
}

func (r memOffers) ActiveByID(_ context.Context, id int64) (*domain.Offer, error) {
	found := r.query(func(o domain.Offer) bool { return o.ID == id && !o.Deleted }, nil)
	if len(found) == 0 {
		return nil, domain.ErrNotFound
	}
	return &found[0], nil
}

func (r memOffers) Available(context.Context) ([]domain.Offer, error) {
	return r.query(func(o domain.Offer) bool { return !o.Deleted && !o.Sold() }, byPostDateDesc), nil
}

func (r memOffers) ActiveByProduct(_ context.Context, productID int64) ([]domain.Offer, error) {
	return r.query(func(o domain.Offer) bool { return !o.Deleted && o.ProductID == productID }, byPostDateDesc), nil
}

func (r memOffers) ActiveBoughtBy(_ context.Context, clientID int64) ([]domain.Offer, error) {
	return r.query(func(o domain.Offer) bool {
		return !o.Deleted && o.BoughtByID != nil && *o.BoughtByID == clientID
	}, func(a, b domain.Offer) int {
		if c := b.BoughtDate.Compare(*a.BoughtDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	}), nil
}

func byPostDateDesc(a, b domain.Offer) int {
	if c := b.PostDate.Compare(a.PostDate); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// query returns matching offers with BoughtBy resolved from the clients table.
func (r memOffers) query(keep func(domain.Offer) bool, order func(a, b domain.Offer) int) []domain.Offer {
	var out []domain.Offer
	r.s.read(func(t *tables) {
		out = sortedValues(t.offers, keep)
		for i := range out {
			if out[i].BoughtByID == nil {
				continue
			}
			if c, ok := t.clients[*out[i].BoughtByID]; ok {
				buyer := c
				out[i].BoughtBy = &buyer
			}
		}
	})
	if order != nil {
		slices.SortStableFunc(out, order)
	}
	return out
}

// storedOffer copies o without aliasing the caller's pointers.
func storedOffer(o domain.Offer) domain.Offer {
	o.BoughtBy = nil
	if o.BoughtByID != nil {
		id := *o.BoughtByID
		o.BoughtByID = &id
	}
	if o.BoughtDate != nil {
		d := *o.BoughtDate
		o.BoughtDate = &d
	}
	if o.DeletedAt != nil {
		d := *o.DeletedAt
		o.DeletedAt = &d
	}
	return o
}

func (r memOffers) Add(o *domain.Offer) {
	var id int64
	r.s.stage(memOp{
		apply: func(t *tables) error {
			if _, ok := t.products[o.ProductID]; !ok {
				return fmt.Errorf("insert offer: product %d: %w", o.ProductID, domain.ErrNotFound)
			}
			t.offerSeq++
			id = t.offerSeq
			stored := storedOffer(*o)
			stored.ID = id
			stored.Deleted = false
			stored.DeletedAt = nil
			t.offers[id] = stored
			return nil
		},
		onCommit: func() { o.ID = id },
	})
}

func (r memOffers) Update(o *domain.Offer) {
	r.s.stage(memOp{
		apply: func(t *tables) error {
			current, ok := t.offers[o.ID]
			if !ok || current.Deleted {
				return fmt.Errorf("update offer %d: %w", o.ID, domain.ErrNotFound)
			}
			if current.BoughtByID != nil && (o.BoughtByID == nil || *current.BoughtByID != *o.BoughtByID) {
				return fmt.Errorf("offer %d already sold: %w", o.ID, domain.ErrConflict)
			}
			if (o.BoughtByID == nil) != (o.BoughtDate == nil) {
				return fmt.Errorf("update offer %d: buyer and purchase date must be set together: %w", o.ID, domain.ErrInvalidInput)
			}
			if o.BoughtByID != nil {
				if _, ok := t.clients[*o.BoughtByID]; !ok {
					return fmt.Errorf("update offer %d: client %d: %w", o.ID, *o.BoughtByID, domain.ErrNotFound)
				}
			}
			next := storedOffer(*o)
			current.Quantity = next.Quantity
			current.ProductPhoto = next.ProductPhoto
			current.BoughtByID = next.BoughtByID
			current.BoughtDate = next.BoughtDate
			t.offers[o.ID] = current
			return nil
		},
	})
}

func (r memOffers) Delete(o *domain.Offer) {
	now := r.s.m.now()
	o.Deleted = true
	o.DeletedAt = &now
	r.s.stage(memOp{
		apply: func(t *tables) error {
			current, ok := t.offers[o.ID]
			if !ok || current.Deleted {
				return fmt.Errorf("soft delete offer %d: %w", o.ID, domain.ErrNotFound)
			}
			if current.BoughtByID != nil {
				return fmt.Errorf("soft delete offer %d: already sold: %w", o.ID, domain.ErrConflict)
			}
			current.Deleted = true
			current.DeletedAt = &now
			t.offers[o.ID] = current
			return nil
		},
	})
}
