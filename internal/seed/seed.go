// Package seed loads the demo accounts and catalog into an empty database.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/safar/go-storefront/internal/auth"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Catalog struct {
	Users    []User    `yaml:"users"`
	Products []Product `yaml:"products"`
}

type User struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Product struct {
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Stock       int    `yaml:"stock"`
	Category    string `yaml:"category"`
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	return &c, nil
}

func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Target is the subset of the store the seeder writes through.
type Target interface {
	CountUsers(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, email, passwordHash, role string) (*models.User, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error)
}

// Run inserts the demo accounts into an empty users table and the catalog
// into an empty products table. Each table is checked on its own, so a
// start that died halfway through seeding is completed by the next one. It
// reports whether anything was written.
func Run(ctx context.Context, target Target, catalog *Catalog, bcryptCost int, log *logger.Logger) (bool, error) {
	users, err := seedUsers(ctx, target, catalog.Users, bcryptCost)
	if err != nil {
		return false, err
	}
	products, err := seedProducts(ctx, target, catalog.Products)
	if err != nil {
		return users > 0, err
	}

	if users == 0 && products == 0 {
		log.Info("Database already seeded")
		return false, nil
	}

	log.Info("Database seeded with initial data",
		zap.Int("users", users),
		zap.Int("products", products))
	return true, nil
}

func seedUsers(ctx context.Context, target Target, users []User, bcryptCost int) (int, error) {
	count, err := target.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	for i, u := range users {
		hash, err := auth.HashPassword(u.Password, bcryptCost)
		if err != nil {
			return i, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if _, err := target.CreateUser(ctx, u.Email, hash, u.Role); err != nil {
			return i, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	return len(users), nil
}

func seedProducts(ctx context.Context, target Target, products []Product) (int, error) {
	count, err := target.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	for i, p := range products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return i, fmt.Errorf("seed product %s: price: %w", p.Name, err)
		}
		_, err = target.CreateProduct(ctx, models.ProductInput{
			Name:        p.Name,
			Price:       price,
			Description: p.Description,
			Image:       p.Image,
			Stock:       p.Stock,
			Category:    p.Category,
		})
		if err != nil {
			return i, fmt.Errorf("seed product %s: %w", p.Name, err)
		}
	}
	return len(products), nil
}
