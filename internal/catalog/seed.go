package catalog

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/homebake/api/internal/enum"
)

// DefaultSeed returns the five items a fresh catalog starts with, stamped with now.
func DefaultSeed(now time.Time) []MenuItem {
	now = now.UTC()
	item := func(id, name, desc, category, image string, price int64, eggless, vegan bool, prep string, rating float64) MenuItem {
		return MenuItem{
			ID:              id,
			Name:            name,
			Description:     desc,
			Category:        category,
			Image:           image,
			BasePrice:       decimal.NewFromInt(price),
			PreparationTime: prep,
			IsEggless:       eggless,
			IsVegan:         vegan,
			Rating:          rating,
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}
	return []MenuItem{
		item("1", "Chocolate Fudge Cake", "Rich, moist chocolate cake with creamy fudge frosting",
			enum.CategoryCelebrationCakes, "/assets/chocolate-cake.jpg", 850, true, false, "24h", 4.9),
		item("2", "Fudgy Brownies", "Decadent brownies with chocolate chips and nuts",
			enum.CategoryBrownies, "/assets/brownies.jpg", 450, true, false, "2h", 4.8),
		item("3", "Vanilla Cupcakes", "Fluffy vanilla cupcakes with buttercream frosting",
			enum.CategoryCupcakes, "/assets/cupcakes.jpg", 350, false, false, "4h", 4.7),
		item("4", "Chocolate Chip Cookies", "Classic cookies with premium chocolate chips",
			enum.CategoryCookies, "/assets/cookies.jpg", 280, true, false, "1h", 4.9),
		item("5", "Artisan Bread", "Freshly baked sourdough with crusty exterior",
			enum.CategoryBreads, "/assets/bread.jpg", 180, false, true, "6h", 4.6),
	}
}

// seedFile is the YAML layout accepted by LoadSeedFile.
type seedFile struct {
	Items []struct {
		ID              string   `yaml:"id"`
		Name            string   `yaml:"name"`
		Description     string   `yaml:"description"`
		Category        string   `yaml:"category"`
		Image           string   `yaml:"image"`
		BasePrice       string   `yaml:"base_price"`
		PreparationTime string   `yaml:"preparation_time"`
		IsEggless       bool     `yaml:"is_eggless"`
		IsVegan         bool     `yaml:"is_vegan"`
		Rating          *float64 `yaml:"rating"`
		IsActive        *bool    `yaml:"is_active"`
	} `yaml:"items"`
}

// LoadSeedFile reads a YAML seed catalog from path. Items keep their ids;
// missing image, rating and is_active take the same defaults as Store.Add.
func LoadSeedFile(path string, now time.Time) ([]MenuItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw, now)
}

// ParseSeed decodes a YAML seed catalog.
func ParseSeed(raw []byte, now time.Time) ([]MenuItem, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	now = now.UTC()
	seen := make(map[string]bool, len(f.Items))
	items := make([]MenuItem, 0, len(f.Items))
	for i, in := range f.Items {
		if in.ID == "" {
			return nil, fmt.Errorf("seed item %d: id is required", i)
		}
		if seen[in.ID] {
			return nil, fmt.Errorf("seed item %d: duplicate id %q", i, in.ID)
		}
		seen[in.ID] = true

		price, err := decimal.NewFromString(in.BasePrice)
		if err != nil {
			return nil, fmt.Errorf("seed item %q: invalid base_price %q", in.ID, in.BasePrice)
		}
		item := MenuItem{
			ID:              in.ID,
			Name:            in.Name,
			Description:     in.Description,
			Category:        in.Category,
			Image:           in.Image,
			BasePrice:       price,
			PreparationTime: in.PreparationTime,
			IsEggless:       in.IsEggless,
			IsVegan:         in.IsVegan,
			Rating:          DefaultRating,
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if item.Image == "" {
			item.Image = PlaceholderImage
		}
		if in.Rating != nil {
			item.Rating = *in.Rating
		}
		if in.IsActive != nil {
			item.IsActive = *in.IsActive
		}
		if err := validate(item, true); err != nil {
			return nil, fmt.Errorf("seed item %q: %w", in.ID, err)
		}
		items = append(items, item)
	}
	return items, nil
}
