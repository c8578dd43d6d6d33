package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Defaults(t *testing.T) {
	c, err := Decode("")
	require.NoError(t, err)

	assert.Equal(t, "neighborguard", c.AppName)
	assert.Equal(t, 8000, c.MainConfig.Port)
	assert.Equal(t, "America/Sao_Paulo", c.Timezone)
	assert.Equal(t, "https://onesignal.com/api/v1/notifications", c.OneSignalConfig.Endpoint)
	assert.Equal(t, 1000, c.OneSignalConfig.BatchSize)
	assert.Equal(t, 5, c.OneSignalConfig.TimeoutSeconds)
	assert.Equal(t, 5.0, c.NotifyConfig.DefaultRadiusKm)
	assert.Equal(t, 500, c.NotifyConfig.RecipientInsertBatch)
	assert.Equal(t, "local", c.NotifyConfig.DispatchMode)
	assert.Equal(t, "neighborguard.notification.dispatch", c.KafkaConfig.DispatchTopic)
	assert.Equal(t, 300, c.RedisConfig.UnreadTTLSecond)
}

func TestDecode_Overrides(t *testing.T) {
	c, err := Decode(`
[oneSignalConfig]
appID = "app"
apiKey = "key"
incidentTemplateID = "tpl"
batchSize = 200

[notifyConfig]
dispatchMode = "kafka"
defaultRadiusKm = 2.5

[kafkaConfig]
brokers = ["k1:9092", "k2:9092"]
`)
	require.NoError(t, err)
	assert.Equal(t, "app", c.OneSignalConfig.AppID)
	assert.Equal(t, "tpl", c.OneSignalConfig.IncidentTemplateID)
	assert.Equal(t, 200, c.OneSignalConfig.BatchSize)
	assert.Equal(t, "kafka", c.NotifyConfig.DispatchMode)
	assert.Equal(t, 2.5, c.NotifyConfig.DefaultRadiusKm)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaConfig.Brokers)
}

func TestDecode_InvalidToml(t *testing.T) {
	_, err := Decode("[mainConfig\nport = ")
	assert.Error(t, err)
}
