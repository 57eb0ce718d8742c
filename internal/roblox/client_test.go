package roblox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
)

func testClient(srv *httptest.Server) *Client {
	return New(Config{
		UsersBase:  srv.URL,
		GamesBase:  srv.URL,
		ThumbsBase: srv.URL,
		APIsBase:   srv.URL,
		AuthBase:   srv.URL,
	})
}

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/usernames/users", r.URL.Path)
		var body struct {
			Usernames []string `json:"usernames"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []string{"builderman"}, body.Usernames)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": 156, "name": "builderman"}},
		})
	}))
	defer srv.Close()

	acc, err := testClient(srv).Resolve(context.Background(), "builderman")
	require.NoError(t, err)
	assert.Equal(t, int64(156), acc.ID)
	assert.Equal(t, "builderman", acc.Name)
}

func TestResolveUnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	_, err := testClient(srv).Resolve(context.Background(), "nobody")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAvatarURLFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	url := testClient(srv).AvatarURL(context.Background(), 156)
	assert.Equal(t, fallbackAvatarURL, url)
}

func TestSellableItemsFiltersOffSale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/game-passes/v1/users/156/game-passes", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"gamePasses": []map[string]any{
				{"gamePassId": 1, "name": "VIP", "price": 100, "isForSale": true},
				{"gamePassId": 2, "name": "Old", "price": 50, "isForSale": false},
				{"gamePassId": 3, "name": "Mega", "price": 1429, "isForSale": true},
			},
		})
	}))
	defer srv.Close()

	items, err := testClient(srv).SellableItems(context.Background(), 156)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, 1429, items[1].Price)
}

func TestItemInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/game-passes/v1/game-passes/99/product-info", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"Name":         "Mega Pass",
			"PriceInRobux": 1429,
			"Creator":      map[string]any{"Id": 156, "Name": "builderman"},
		})
	}))
	defer srv.Close()

	item, err := testClient(srv).ItemInfo(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, "Mega Pass", item.Name)
	assert.Equal(t, 1429, item.Price)
	assert.Equal(t, int64(156), item.OwnerID)
}

func TestItemInfoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv).ItemInfo(context.Background(), 404)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
