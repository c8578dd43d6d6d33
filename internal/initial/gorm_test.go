package initial

import (
	"testing"

	"NeighborGuard/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMysqlDSN(t *testing.T) {
	conf, err := config.Decode(`
[mysqlConfig]
host = "db"
user = "app"
password = "pw"
databaseName = "guard"
`)
	require.NoError(t, err)
	assert.Equal(t, "app:pw@tcp(db:3306)/guard?charset=utf8mb4&parseTime=True&loc=UTC", mysqlDSN(conf))

	conf.MysqlConfig.DatabaseName = ""
	assert.Contains(t, mysqlDSN(conf), "/neighborguard?")
}
