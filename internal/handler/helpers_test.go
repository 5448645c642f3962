package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/homebake/api/internal/apperr"
	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/enum"
)

var testNow = time.Date(2026, 5, 10, 10, 0, 0, 0, time.UTC)

// --- Mock store ---

// mockCatalog is an in-memory MenuStore. err, when set, is returned by every
// method.
type mockCatalog struct {
	mu    sync.Mutex
	items []catalog.MenuItem
	err   error
	seq   int
}

func newMockCatalog(items ...catalog.MenuItem) *mockCatalog {
	return &mockCatalog{items: items}
}

func (m *mockCatalog) Load(_ context.Context) ([]catalog.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]catalog.MenuItem, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *mockCatalog) Get(_ context.Context, id string) (catalog.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return catalog.MenuItem{}, m.err
	}
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return catalog.MenuItem{}, apperr.NotFound("menu item", id)
}

func (m *mockCatalog) Add(_ context.Context, c catalog.Candidate) (catalog.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return catalog.MenuItem{}, m.err
	}
	if c.Name == "" {
		return catalog.MenuItem{}, apperr.Validation("name", "is required")
	}
	if c.BasePrice == nil {
		return catalog.MenuItem{}, apperr.Validation("base_price", "is required")
	}
	m.seq++
	item := catalog.MenuItem{
		ID:          fmt.Sprintf("new-%d", m.seq),
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		Image:       c.Image,
		BasePrice:   *c.BasePrice,
		Rating:      catalog.DefaultRating,
		IsActive:    true,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	if c.IsActive != nil {
		item.IsActive = *c.IsActive
	}
	m.items = append(m.items, item)
	return item, nil
}

func (m *mockCatalog) Update(_ context.Context, id string, p catalog.Patch) (catalog.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return catalog.MenuItem{}, m.err
	}
	for i, it := range m.items {
		if it.ID != id {
			continue
		}
		if p.Name != nil {
			it.Name = *p.Name
		}
		if p.BasePrice != nil {
			it.BasePrice = *p.BasePrice
		}
		if p.IsActive != nil {
			it.IsActive = *p.IsActive
		}
		m.items[i] = it
		return it, nil
	}
	return catalog.MenuItem{}, apperr.NotFound("menu item", id)
}

func (m *mockCatalog) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("menu item", id)
}

// --- Fixtures ---

func testItem(id, name, category string, price int64, rating float64, active bool) catalog.MenuItem {
	return catalog.MenuItem{
		ID:        id,
		Name:      name,
		Category:  category,
		BasePrice: decimal.NewFromInt(price),
		Rating:    rating,
		IsActive:  active,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func testMenu() []catalog.MenuItem {
	return []catalog.MenuItem{
		testItem("1", "Chocolate Fudge Cake", enum.CategoryCelebrationCakes, 850, 4.9, true),
		testItem("2", "Fudgy Brownies", enum.CategoryBrownies, 450, 4.8, true),
		testItem("3", "Vanilla Cupcakes", enum.CategoryCupcakes, 350, 4.7, true),
		testItem("4", "Choco Chip Cookies", enum.CategoryCookies, 300, 4.6, true),
		testItem("5", "Banana Bread", enum.CategoryBreads, 400, 4.5, true),
		testItem("6", "Retired Tart", enum.CategoryTarts, 500, 5.0, false),
	}
}

// --- Helpers ---

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeListResponse(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func ids(list []map[string]interface{}) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i], _ = m["id"].(string)
	}
	return out
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewReader(b)
}
