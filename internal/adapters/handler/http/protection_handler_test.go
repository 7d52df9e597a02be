package http_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

func TestProtectionHandler(t *testing.T) {
	t.Run("Fresh user starts with an empty inventory", func(t *testing.T) {
		env := setupEngineRouter()

		w := env.do(t, http.MethodGet, "/api/v1/protection", "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var inv domain.ProtectionInventory
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
		assert.Equal(t, 0, inv.FreezesAvailable)
		assert.False(t, inv.Shield.Active)
	})

	t.Run("Tiers endpoint lists the catalog", func(t *testing.T) {
		env := setupEngineRouter()

		w := env.do(t, http.MethodGet, "/api/v1/protection/tiers", "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var tiers []domain.ShieldTier
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tiers))
		require.Len(t, tiers, 3)
		assert.Equal(t, "basic", tiers[0].ID)
		assert.Equal(t, 30, tiers[2].DurationDays)
	})

	t.Run("Shield purchase replaces, freezes accumulate", func(t *testing.T) {
		env := setupEngineRouter()

		w := env.do(t, http.MethodPost, "/api/v1/protection/shield", "user-1", map[string]any{"tier": "basic"})
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodPost, "/api/v1/protection/shield", "user-1", map[string]any{"tier": "ultimate"})
		require.Equal(t, http.StatusOK, w.Code)

		var inv domain.ProtectionInventory
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
		assert.True(t, inv.Shield.Active)
		assert.Equal(t, 5, inv.Shield.MaxUses, "A new shield replaces the old one, uses never stack")

		w = env.do(t, http.MethodPost, "/api/v1/protection/freezes", "user-1", map[string]any{"count": 2})
		require.Equal(t, http.StatusOK, w.Code)
		w = env.do(t, http.MethodPost, "/api/v1/protection/freezes", "user-1", map[string]any{"count": 1})
		require.Equal(t, http.StatusOK, w.Code)

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
		assert.Equal(t, 3, inv.FreezesAvailable, "Freeze purchases accumulate")
	})

	t.Run("Unknown shield tier is a 400", func(t *testing.T) {
		env := setupEngineRouter()

		w := env.do(t, http.MethodPost, "/api/v1/protection/shield", "user-1", map[string]any{"tier": "diamond"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Earn awards a freeze only on interval milestones", func(t *testing.T) {
		env := setupEngineRouter()
		closeRun(t, env, "user-1", []int{-6, -5, -4, -3, -2, -1, 0})

		w := env.do(t, http.MethodPost, "/api/v1/protection/earn", "user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Earned    bool                       `json:"earned"`
			Streak    int                        `json:"streak"`
			Inventory domain.ProtectionInventory `json:"inventory"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Earned)
		assert.Equal(t, 7, resp.Streak)
		assert.Equal(t, 1, resp.Inventory.FreezesAvailable)
	})

	t.Run("Earn off-milestone awards nothing", func(t *testing.T) {
		env := setupEngineRouter()
		closeRun(t, env, "user-1", []int{-2, -1, 0})

		w := env.do(t, http.MethodPost, "/api/v1/protection/earn", "user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Earned    bool                       `json:"earned"`
			Inventory domain.ProtectionInventory `json:"inventory"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Earned)
		assert.Equal(t, 0, resp.Inventory.FreezesAvailable)
	})
}
