package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the preconf sender
const (
	EnvPreconfExecutionUrl         = "PRECONF_EXECUTION_URL"
	EnvPreconfBeaconUrl            = "PRECONF_BEACON_URL"
	EnvPreconfPreconferUrl         = "PRECONF_PRECONFER_URL"
	EnvPreconfPrivateKey           = "PRECONF_PRIVATE_KEY"
	EnvPreconfKeystorePath         = "PRECONF_KEYSTORE"
	EnvPreconfKeystorePassword     = "PRECONF_KEYSTORE_PASSWORD"
	EnvPreconfAwsKmsKeyId          = "PRECONF_AWS_KMS_KEY_ID"
	EnvPreconfAwsRegion            = "PRECONF_AWS_REGION"
	EnvPreconfProtocol             = "PRECONF_PROTOCOL"
	EnvPreconfTimeout              = "PRECONF_TIMEOUT"
	EnvPreconfReplacementUuid      = "PRECONF_REPLACEMENT_UUID"
	EnvPreconfFreshReplacementUuid = "PRECONF_FRESH_REPLACEMENT_UUID"
	EnvPreconfDebug                = "PRECONF_DEBUG"
)

const (
	// DefaultRequestTimeout bounds every HTTP call. It is shorter than one 12s slot.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultEthgasReplacementUuid is the fixed idempotency token sent to Ethgas unless overridden
	DefaultEthgasReplacementUuid = "01ab2371-84d6-459e-95e7-5edad485f282"
)

type Protocol string

func (p Protocol) String() string {
	return string(p)
}

const (
	Protocol_Bolt   Protocol = "bolt"
	Protocol_Ethgas Protocol = "ethgas"
	Protocol_Luban  Protocol = "luban"
)

// SupportedProtocols returns every protocol the sender can dispatch to
func SupportedProtocols() []Protocol {
	return []Protocol{Protocol_Bolt, Protocol_Ethgas, Protocol_Luban}
}

// SupportedProtocolsString returns supported protocols for CLI help
func SupportedProtocolsString() string {
	return strings.Join(protocolNames(), ", ")
}

// ParseProtocol parses a protocol name case-insensitively
func ParseProtocol(name string) (Protocol, error) {
	normalized := Protocol(strings.ToLower(strings.TrimSpace(name)))
	for _, p := range SupportedProtocols() {
		if p == normalized {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported protocol %q. Supported: %s", name, SupportedProtocolsString())
}

// PreconfSenderConfig represents the complete configuration for one submission
type PreconfSenderConfig struct {
	// Endpoints
	ExecutionUrl string `json:"execution_url"`
	BeaconUrl    string `json:"beacon_url"`
	PreconferUrl string `json:"preconfer_url"`

	// Signer identity. Exactly one of PrivateKey, KeystorePath or AwsKmsKeyId.
	PrivateKey       string `json:"-"`
	KeystorePath     string `json:"keystore_path"`
	KeystorePassword string `json:"-"`
	AwsKmsKeyId      string `json:"aws_kms_key_id"`
	AwsRegion        string `json:"aws_region"`

	// Transaction source. Exactly one of RawTx or Random.
	RawTx  string `json:"raw_tx"`
	Random bool   `json:"random"`

	Protocol Protocol      `json:"protocol"`
	Timeout  time.Duration `json:"timeout"`

	// Ethgas idempotency token
	ReplacementUuid      string `json:"replacement_uuid"`
	FreshReplacementUuid bool   `json:"fresh_replacement_uuid"`

	Debug bool `json:"debug"`
}

// Validate validates the sender configuration and fills defaults
func (c *PreconfSenderConfig) Validate() error {
	var allErrors field.ErrorList

	allErrors = append(allErrors, validateHttpUrl(field.NewPath("executionUrl"), c.ExecutionUrl)...)
	allErrors = append(allErrors, validateHttpUrl(field.NewPath("beaconUrl"), c.BeaconUrl)...)
	allErrors = append(allErrors, validateHttpUrl(field.NewPath("preconferUrl"), c.PreconferUrl)...)

	switch c.signerSources() {
	case 0:
		allErrors = append(allErrors, field.Required(field.NewPath("privateKey"), "one of privateKey, keystorePath or awsKmsKeyId is required"))
	case 1:
	default:
		allErrors = append(allErrors, field.Forbidden(field.NewPath("privateKey"), "privateKey, keystorePath and awsKmsKeyId are mutually exclusive"))
	}

	switch {
	case c.RawTx == "" && !c.Random:
		allErrors = append(allErrors, field.Required(field.NewPath("rawTx"), "either specify a raw transaction or set random"))
	case c.RawTx != "" && c.Random:
		allErrors = append(allErrors, field.Forbidden(field.NewPath("random"), "rawTx and random are mutually exclusive"))
	}

	if c.Protocol == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("protocol"), "protocol is required"))
	} else if p, err := ParseProtocol(c.Protocol.String()); err != nil {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("protocol"), c.Protocol.String(), protocolNames()))
	} else {
		c.Protocol = p
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultRequestTimeout
	} else if c.Timeout < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("timeout"), c.Timeout.String(), "timeout must be positive"))
	}

	if c.ReplacementUuid == "" {
		c.ReplacementUuid = DefaultEthgasReplacementUuid
	} else if _, err := uuid.Parse(c.ReplacementUuid); err != nil {
		allErrors = append(allErrors, field.Invalid(field.NewPath("replacementUuid"), c.ReplacementUuid, err.Error()))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func (c *PreconfSenderConfig) signerSources() int {
	n := 0
	for _, v := range []string{c.PrivateKey, c.KeystorePath, c.AwsKmsKeyId} {
		if v != "" {
			n++
		}
	}
	return n
}

func protocolNames() []string {
	names := make([]string, 0, len(SupportedProtocols()))
	for _, p := range SupportedProtocols() {
		names = append(names, p.String())
	}
	return names
}

func validateHttpUrl(path *field.Path, raw string) field.ErrorList {
	var errs field.ErrorList
	if raw == "" {
		return append(errs, field.Required(path, "url is required"))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return append(errs, field.Invalid(path, raw, err.Error()))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, field.Invalid(path, raw, "url scheme must be http or https"))
	}
	if u.Host == "" {
		errs = append(errs, field.Invalid(path, raw, "url host is required"))
	}
	return errs
}
