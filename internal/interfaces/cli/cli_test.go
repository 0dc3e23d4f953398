package cli_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/interfaces/cli"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

type runner struct {
	db string
}

func newRunner(t *testing.T) *runner {
	t.Helper()
	return &runner{db: filepath.Join(t.TempDir(), "ledger.db")}
}

func (r *runner) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--driver", "sqlite", "--sqlite-path", r.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (r *runner) seed(t *testing.T) {
	t.Helper()
	_, err := r.run(t, "seed", "--id", "P", "--name", "Kurta", "--sku", "KRT-01",
		"--size", "S=4", "--size", "M=10", "--mrp", "1200")
	require.NoError(t, err)
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestSeed_SalidaYAML(t *testing.T) {
	r := newRunner(t)
	out, err := r.run(t, "seed", "--id", "P", "--name", "Kurta", "--size", "S=4", "--size", " M =10")
	require.NoError(t, err)

	var product struct {
		ID       string `yaml:"id"`
		Variants []struct {
			Size     string `yaml:"size"`
			Quantity int64  `yaml:"quantity"`
		} `yaml:"variants"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &product))
	assert.Equal(t, "P", product.ID)
	require.Len(t, product.Variants, 2)
	assert.Equal(t, "M", product.Variants[1].Size, "la talla se recorta")
	assert.Equal(t, int64(10), product.Variants[1].Quantity)
}

func TestSeed_VarianteInvalida(t *testing.T) {
	r := newRunner(t)
	_, err := r.run(t, "seed", "--name", "Kurta", "--size", "S")
	assert.Error(t, err)

	_, err = r.run(t, "seed", "--name", "Kurta", "--size", "S=1", "--size", "S =2")
	assert.ErrorContains(t, err, "repetida")
}

func TestFormatoInvalido(t *testing.T) {
	r := newRunner(t)
	_, err := r.run(t, "--format", "xml", "migrate")
	assert.ErrorContains(t, err, "formato inválido")
}

func TestMigrate(t *testing.T) {
	r := newRunner(t)
	out, err := r.run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite")
}

func TestAudit_DerivaYStrict(t *testing.T) {
	r := newRunner(t)
	r.seed(t)

	out, err := r.run(t, "--format", "json", "audit", "P")
	require.NoError(t, err)
	var report dto.AuditReportResponse
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Consistent, "cantidades sembradas sin movimientos que las respalden")

	_, err = r.run(t, "audit", "P", "--strict")
	assert.ErrorContains(t, err, "deriva")

	_, err = r.run(t, "audit", "NOPE")
	assert.Error(t, err)
}

func TestClearStock_RequiereConfirmacion(t *testing.T) {
	r := newRunner(t)
	r.seed(t)

	_, err := r.run(t, "clear-stock", "P")
	assert.ErrorContains(t, err, "--yes")

	out, err := r.run(t, "--format", "json", "clear-stock", "P", "--yes")
	require.NoError(t, err)
	var cleared dto.ClearStockResponse
	require.NoError(t, json.Unmarshal([]byte(out), &cleared))
	assert.Equal(t, int64(0), cleared.Deleted)

	out, err = r.run(t, "--format", "json", "audit", "P")
	require.NoError(t, err)
	var report dto.AuditReportResponse
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Consistent, "tras el reinicio libro y proyección coinciden en cero")
}

func TestCleanupNegative_SinNegativos(t *testing.T) {
	r := newRunner(t)
	r.seed(t)

	out, err := r.run(t, "cleanup-negative")
	require.NoError(t, err)
	var res dto.CleanupResponse
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, int64(0), res.Repaired)
}

func TestActivity_Vacia(t *testing.T) {
	r := newRunner(t)
	r.seed(t)

	out, err := r.run(t, "--format", "json", "activity", "--limit-in", "5")
	require.NoError(t, err)
	var activity dto.ActivityResponse
	require.NoError(t, json.Unmarshal([]byte(out), &activity))
	assert.Empty(t, activity.StockIn)
	assert.Empty(t, activity.StockOut)
}

func TestToken_EmiteTokenValido(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	r := newRunner(t)

	out, err := r.run(t, "--format", "json", "token", "--user", "u1", "--role", "admin", "--exp", "5")
	require.NoError(t, err)
	var res struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 300, res.ExpiresIn)

	userID, _, role, err := pkgjwt.Parse("cli-secret", res.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "admin", role)
}

func TestToken_SinSecreto(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	r := newRunner(t)
	_, err := r.run(t, "token", "--user", "u1")
	assert.ErrorIs(t, err, pkgjwt.ErrEmptySecret)
}
