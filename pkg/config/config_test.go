package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainkit-labs/bcos-sdk/pkg/config"
	"github.com/chainkit-labs/bcos-sdk/pkg/sign"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const channelJSON = `{
  "service_type": "channel",
  "node": {"host": "127.0.0.1", "port": 20200},
  "account": "accounts/alice.pem",
  "authentication": {"ca_cert": "certs/ca.crt", "sign_cert": "certs/sdk.crt", "sign_key": "/etc/bcos/sdk.key"},
  "sm_crypto": false,
  "group_id": 1,
  "chain_id": 1,
  "timeout_seconds": 10
}`

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	conf, err := config.Load(writeFile(t, dir, "config.json", channelJSON))
	require.NoError(t, err)

	assert.False(t, conf.IsRPC())
	assert.Equal(t, "127.0.0.1", conf.Node.Host)
	assert.Equal(t, 20200, conf.Node.Port)
	assert.Equal(t, uint32(1), conf.GroupID)
	assert.Equal(t, 10*time.Second, conf.Timeout())
	assert.Equal(t, sign.CryptoStandard, conf.CryptoType())

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(abs, "accounts", "alice.pem"), conf.Account)
	assert.Equal(t, filepath.Join(abs, "certs", "ca.crt"), conf.Authentication.CACert)
	assert.Equal(t, "/etc/bcos/sdk.key", conf.Authentication.SignKey)
	assert.Empty(t, conf.Authentication.EncKey)

	tc := conf.TransportConfig()
	assert.Equal(t, 20200, tc.Port)
	assert.False(t, tc.National)
	assert.Equal(t, conf.Authentication.SignCert, tc.SignCert)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
service_type: rpc
node:
  host: localhost
  port: 8545
account: key.pem
sm_crypto: true
group_id: 2
chain_id: 3
timeout_seconds: 5
`)
	conf, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, conf.IsRPC())
	assert.Equal(t, "http://localhost:8545", conf.RPCURL())
	assert.Equal(t, sign.CryptoNational, conf.CryptoType())
	assert.Equal(t, uint32(3), conf.ChainID)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", channelJSON)
	t.Setenv("BCOS_NODE_PORT", "20300")

	conf, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20300, conf.Node.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", channelJSON)
	writeFile(t, dir, ".env", "BCOS_GROUP_ID=7\n")
	require.NoError(t, os.Unsetenv("BCOS_GROUP_ID"))
	t.Cleanup(func() { os.Unsetenv("BCOS_GROUP_ID") })

	conf, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), conf.GroupID)
}

func TestLoadInvalid(t *testing.T) {
	tcs := []struct {
		name   string
		body   string
		fields []string
	}{
		{
			name:   "missing host and zero timeout",
			body:   `{"service_type":"rpc","node":{"port":8545},"timeout_seconds":0}`,
			fields: []string{"Host", "TimeoutSeconds"},
		},
		{
			name:   "port out of range",
			body:   `{"service_type":"rpc","node":{"host":"h","port":70000},"timeout_seconds":1}`,
			fields: []string{"Port"},
		},
		{
			name:   "channel without certificates",
			body:   `{"service_type":"channel","node":{"host":"h","port":1},"timeout_seconds":1}`,
			fields: []string{"CACert", "SignCert", "SignKey"},
		},
		{
			name: "national channel without encryption pair",
			body: `{"service_type":"channel","node":{"host":"h","port":1},"timeout_seconds":1,"sm_crypto":true,
				"authentication":{"ca_cert":"a","sign_cert":"b","sign_key":"c"}}`,
			fields: []string{"EncCert", "EncKey"},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, t.TempDir(), "config.json", tc.body))
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			var got []string
			for _, fe := range verrs {
				got = append(got, fe.Field())
			}
			assert.ElementsMatch(t, tc.fields, got)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
