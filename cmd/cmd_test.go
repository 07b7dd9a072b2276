package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/wwcp/app/plugins"
	"github.com/kilianp07/wwcp/config"
	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
)

const testConfig = `pools:
  - id: "DE*GEF*P1"
    name: "Jena"
    remote:
      type: "virtual"
    stations:
      - id: "DE*GEF*SA"
        evses:
          - id: "DE*GEF*EA1"
            max_power_kw: 22
          - id: "DE*GEF*EA2"
            max_power_kw: 11
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", path))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPoolShow(t *testing.T) {
	out, err := execute(t, "pool", "show", "--stations")
	require.NoError(t, err)
	var pools []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &pools))
	require.Len(t, pools, 1)
	assert.Equal(t, "DE*GEF*P1", pools[0]["@id"])
	summary := pools[0]["powerSummary"].(map[string]any)
	assert.Equal(t, 33.0, summary["totalKW"])

	_, err = execute(t, "pool", "show", "DE*GEF*P9")
	assert.Error(t, err)
}

func TestReserve(t *testing.T) {
	out, err := execute(t, "reserve", "DE*GEF*P1", "DE*GEF*EA1")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Success", res["result"])

	_, err = execute(t, "reserve", "DE*GEF*P1", "garbage")
	assert.Error(t, err)
}

func TestParseLocation(t *testing.T) {
	pool := model.MustParseChargingPoolID("DE*GEF*P1")
	loc, err := parseLocation(pool, "")
	require.NoError(t, err)
	assert.Equal(t, charging.LevelChargingPool, loc.Level())

	loc, err = parseLocation(pool, "DE*GEF*SA")
	require.NoError(t, err)
	assert.Equal(t, charging.LevelChargingStation, loc.Level())

	loc, err = parseLocation(pool, "DE*GEF*EA1")
	require.NoError(t, err)
	assert.Equal(t, charging.LevelEVSE, loc.Level())
}

func TestFlipRandomEVSE(t *testing.T) {
	vp, err := plugins.NewVirtualPool(config.PoolConfig{
		ID: "DE*GEF*P1",
		Stations: []config.StationConfig{{
			ID:    "DE*GEF*SA",
			EVSEs: []config.EVSEConfig{{ID: "DE*GEF*EA1"}},
		}},
	})
	require.NoError(t, err)
	e, _ := vp.EVSE(model.MustParseEVSEID("DE*GEF*EA1"))
	require.Equal(t, model.EVSEStatusAvailable, e.Status())

	flipRandomEVSE(vp)
	assert.Equal(t, model.EVSEStatusFaulted, e.Status())
	flipRandomEVSE(vp)
	assert.Equal(t, model.EVSEStatusAvailable, e.Status())
}
