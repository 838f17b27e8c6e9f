// Package config loads the client configuration file.
package config

import (
	"io/fs"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/chainkit-labs/bcos-sdk/pkg/sign"
	"github.com/chainkit-labs/bcos-sdk/pkg/transport"
)

const (
	// ServiceTypeRPC selects the HTTP JSON-RPC transport. Any other
	// service type selects the channel transport.
	ServiceTypeRPC     = "rpc"
	ServiceTypeChannel = "channel"
)

// Node is the address of the node the client talks to.
type Node struct {
	Host string `json:"host" yaml:"host" env:"BCOS_NODE_HOST" validate:"required"`
	Port int    `json:"port" yaml:"port" env:"BCOS_NODE_PORT" validate:"min=1,max=65535"`
}

// Authentication holds the certificate material of the channel transport.
type Authentication struct {
	CACert   string `json:"ca_cert" yaml:"ca_cert" env:"BCOS_CA_CERT"`
	SignCert string `json:"sign_cert" yaml:"sign_cert" env:"BCOS_SIGN_CERT"`
	SignKey  string `json:"sign_key" yaml:"sign_key" env:"BCOS_SIGN_KEY"`
	EncCert  string `json:"enc_cert" yaml:"enc_cert" env:"BCOS_ENC_CERT"`
	EncKey   string `json:"enc_key" yaml:"enc_key" env:"BCOS_ENC_KEY"`
}

// Config is read once and shared read-only afterwards.
type Config struct {
	ServiceType    string         `json:"service_type" yaml:"service_type" env:"BCOS_SERVICE_TYPE" validate:"required"`
	Node           Node           `json:"node" yaml:"node"`
	Account        string         `json:"account" yaml:"account" env:"BCOS_ACCOUNT"`
	Authentication Authentication `json:"authentication" yaml:"authentication"`
	SMCrypto       bool           `json:"sm_crypto" yaml:"sm_crypto" env:"BCOS_SM_CRYPTO"`
	GroupID        uint32         `json:"group_id" yaml:"group_id" env:"BCOS_GROUP_ID"`
	ChainID        uint32         `json:"chain_id" yaml:"chain_id" env:"BCOS_CHAIN_ID"`
	TimeoutSeconds int64          `json:"timeout_seconds" yaml:"timeout_seconds" env:"BCOS_TIMEOUT_SECONDS" validate:"gt=0"`
}

// Load reads the file at path. An optional .env next to it is loaded first
// so BCOS_* variables in it override file values. Relative account and
// certificate paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	dir := filepath.Dir(path)
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	var conf Config
	if err := cleanenv.ReadConfig(path, &conf); err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if err := conf.resolvePaths(dir); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) resolvePaths(base string) error {
	for _, p := range []*string{
		&c.Account,
		&c.Authentication.CACert,
		&c.Authentication.SignCert,
		&c.Authentication.SignKey,
		&c.Authentication.EncCert,
		&c.Authentication.EncKey,
	} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(base, *p))
		if err != nil {
			return errors.Wrapf(err, "failed to resolve %s", *p)
		}
		*p = abs
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateTransport, Config{})
	return v
}

// validateTransport requires certificate material on the channel transport;
// national mode additionally needs the encryption pair.
func validateTransport(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.IsRPC() {
		return
	}
	auth := c.Authentication
	for field, value := range map[string]string{
		"CACert":   auth.CACert,
		"SignCert": auth.SignCert,
		"SignKey":  auth.SignKey,
	} {
		if value == "" {
			sl.ReportError(value, field, field, "required_for_channel", "")
		}
	}
	if c.SMCrypto {
		if auth.EncCert == "" {
			sl.ReportError(auth.EncCert, "EncCert", "EncCert", "required_for_national", "")
		}
		if auth.EncKey == "" {
			sl.ReportError(auth.EncKey, "EncKey", "EncKey", "required_for_national", "")
		}
	}
}

// Validate checks field ranges and transport-specific requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

func (c *Config) IsRPC() bool { return c.ServiceType == ServiceTypeRPC }

func (c *Config) CryptoType() sign.CryptoType { return sign.CryptoTypeFor(c.SMCrypto) }

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RPCURL is the HTTP endpoint of the node.
func (c *Config) RPCURL() string {
	return "http://" + net.JoinHostPort(c.Node.Host, strconv.Itoa(c.Node.Port))
}

// TransportConfig is the TLS dialer configuration of the channel transport.
func (c *Config) TransportConfig() transport.Config {
	return transport.Config{
		Host:     c.Node.Host,
		Port:     c.Node.Port,
		Timeout:  c.Timeout(),
		National: c.SMCrypto,
		CACert:   c.Authentication.CACert,
		SignCert: c.Authentication.SignCert,
		SignKey:  c.Authentication.SignKey,
		EncCert:  c.Authentication.EncCert,
		EncKey:   c.Authentication.EncKey,
	}
}
