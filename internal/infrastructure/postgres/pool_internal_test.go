package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/pkg/config"
)

func TestBuildPoolConfig_DesdeCampos(t *testing.T) {
	pc, err := buildPoolConfig(config.DBConfig{
		Host:            "db.intranet",
		Port:            5433,
		User:            "portal",
		Password:        "segredo",
		DBName:          "portal",
		SSLMode:         "disable",
		MaxConns:        8,
		MinConns:        3,
		ApplicationName: "portal-worker",
	})
	require.NoError(t, err)

	assert.Equal(t, "db.intranet", pc.ConnConfig.Host)
	assert.EqualValues(t, 5433, pc.ConnConfig.Port)
	assert.Equal(t, "portal", pc.ConnConfig.Database)
	assert.EqualValues(t, 8, pc.MaxConns)
	assert.EqualValues(t, 3, pc.MinConns)
	assert.Equal(t, "portal-worker", pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.AfterConnect)
}

func TestBuildPoolConfig_DatabaseURLTienePrioridad(t *testing.T) {
	pc, err := buildPoolConfig(config.DBConfig{
		DatabaseURL: "postgres://u:p@pg.local:5432/intranet?sslmode=disable",
		Host:        "ignorado",
		MaxConns:    4,
		MinConns:    10,
	})
	require.NoError(t, err)

	assert.Equal(t, "pg.local", pc.ConnConfig.Host)
	assert.Equal(t, "intranet", pc.ConnConfig.Database)
	assert.EqualValues(t, 4, pc.MaxConns)
	// MinConns mayor que MaxConns se ignora
	assert.NotEqualValues(t, 10, pc.MinConns)
}

func TestBuildPoolConfig_DSNInvalido(t *testing.T) {
	_, err := buildPoolConfig(config.DBConfig{DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}
