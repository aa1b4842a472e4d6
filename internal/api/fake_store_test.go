package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/payment"
	"github.com/safar/go-storefront/internal/store"
)

type fakeStore struct {
	mu        sync.Mutex
	users     map[int64]*models.User
	passwords map[string]string
	products  map[int64]*models.Product
	orders    map[int64]*models.Order
	inUse     map[int64]bool
	nextID    int64

	pingErr    error
	getUserErr error
	lastFilter store.ProductFilter
	lastCursor string
	lastLimit  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[int64]*models.User{},
		passwords: map[string]string{},
		products:  map[int64]*models.Product{},
		orders:    map[int64]*models.Order{},
		inUse:     map[int64]bool{},
		nextID:    100,
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addUser(id int64, email, hash, role string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: id, Email: email, Role: role}
	f.users[id] = u
	f.passwords[email] = hash
	return u
}

func (f *fakeStore) addProduct(id int64, name, price string, stock int) *models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	f.products[id] = p
	return p
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserCredentials(ctx context.Context, email string) (*models.User, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, f.passwords[email], nil
		}
	}
	return nil, "", database.ErrUserNotFound
}

func (f *fakeStore) CreateUser(ctx context.Context, email, passwordHash, role string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.passwords[email]; ok {
		return nil, database.ErrEmailTaken
	}
	u := &models.User{ID: f.id(), Email: email, Role: role}
	f.users[u.ID] = u
	f.passwords[email] = passwordHash
	return u, nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []models.User
	for _, u := range f.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeStore) ListProducts(ctx context.Context, filter store.ProductFilter) (*store.OffsetPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter

	var all []models.Product
	for _, p := range f.products {
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page := &store.OffsetPage{Total: int64(len(all)), Page: filter.Page, PageSize: filter.PageSize}
	if filter.PageSize == 0 {
		page.Items = all
		page.TotalPages = 1
		return page, nil
	}
	page.TotalPages = (len(all) + filter.PageSize - 1) / filter.PageSize
	start := (filter.Page - 1) * filter.PageSize
	if start < len(all) {
		end := start + filter.PageSize
		if end > len(all) {
			end = len(all)
		}
		page.Items = all[start:end]
	}
	return page, nil
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var categories []string
	for _, p := range f.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (f *fakeStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, database.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := productFromInput(f.id(), in)
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return nil, database.ErrProductNotFound
	}
	p := productFromInput(id, in)
	f.products[id] = p
	return p, nil
}

func (f *fakeStore) DeleteProduct(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return database.ErrProductNotFound
	}
	if f.inUse[id] {
		return database.ErrProductInUse
	}
	delete(f.products, id)
	return nil
}

func productFromInput(id int64, in models.ProductInput) *models.Product {
	return &models.Product{
		ID:          id,
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Image:       in.Image,
		Stock:       in.Stock,
		Category:    in.Category,
		CreatedAt:   time.Now(),
	}
}

func (f *fakeStore) PlaceOrder(ctx context.Context, req store.PlaceOrderRequest) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(req.Items) == 0 {
		return nil, store.ErrInvalidOrderItems
	}
	if _, ok := f.users[req.UserID]; !ok {
		return nil, database.ErrUserNotFound
	}

	order := &models.Order{ID: f.id(), UserID: req.UserID, Status: models.OrderStatusPending, CreatedAt: time.Now()}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, store.ErrInvalidOrderItems
		}
		p, ok := f.products[item.ProductID]
		if !ok {
			return nil, &database.StockError{ProductID: item.ProductID, Err: database.ErrProductNotFound}
		}
		if p.Stock < item.Quantity {
			return nil, &database.StockError{ProductID: p.ID, Name: p.Name, Err: database.ErrInsufficientStock}
		}
	}
	for _, item := range req.Items {
		p := f.products[item.ProductID]
		p.Stock -= item.Quantity
		order.Total = order.Total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		order.Items = append(order.Items, models.OrderItem{ProductID: p.ID, Quantity: item.Quantity, Price: p.Price})
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []models.Order
	for _, o := range f.orders {
		orders = append(orders, *o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (f *fakeStore) ListUserOrdersCursor(ctx context.Context, userID int64, cursor string, limit int) (*store.CursorPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCursor, f.lastLimit = cursor, limit

	page := &store.CursorPage{Items: []models.Order{}}
	for _, o := range f.orders {
		if o.UserID == userID {
			page.Items = append(page.Items, *o)
		}
	}
	sort.Slice(page.Items, func(i, j int) bool { return page.Items[i].ID > page.Items[j].ID })
	if len(page.Items) > limit {
		page.Items = page.Items[:limit]
		page.HasMore = true
	}
	return page, nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

type fakePayments struct {
	charged []int64
	err     error
}

func (p *fakePayments) CreateIntent(ctx context.Context, order *models.Order) (*payment.Intent, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.charged = append(p.charged, order.ID)
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}
