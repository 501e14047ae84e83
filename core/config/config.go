package config

import (
	_ "embed"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	HistoryLogName    = "history.jsonl"

	// DefaultInputBufferSize is the starting capacity of the line buffer.
	DefaultInputBufferSize = 1024
	// DefaultBufferGrowthFactor is the multiplier applied when a buffer fills.
	DefaultBufferGrowthFactor = 2
)

// Color output modes.
const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs afero.Fs

	// Name is the shell's name, used in the prompt and diagnostics.
	Name string `json:"name" validate:"required"`
	// Prompt overrides the default "<name>> " prompt when set.
	Prompt string `json:"prompt"`
	// Color controls prompt colorization.
	Color string `json:"color" validate:"oneof=always auto never"`

	InitialBufferSize  int `json:"initial_buffer_size" validate:"gte=1"`
	BufferGrowthFactor int `json:"buffer_growth_factor" validate:"gte=2"`

	// History enables command logging to the history log.
	History bool `json:"history"`

	SSH SSH `json:"ssh"`
}

// SSH holds the settings for serving the shell over the network.
type SSH struct {
	Port   int    `json:"port" validate:"gte=0,lte=65535"`
	Banner string `json:"banner"`
	// HostKey is the name of the PEM encoded host key file, created on
	// first use if missing.
	HostKey string `json:"host_key" validate:"required"`
	// AuthorizedKeys is the name of an OpenSSH authorized_keys file
	// controlling who may connect.
	AuthorizedKeys string `json:"authorized_keys" validate:"required"`
	// SessionsPerMinute limits new session admission. 0 disables the limit.
	SessionsPerMinute int `json:"sessions_per_minute" validate:"gte=0"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// PromptString returns the text shown before each command is read.
func (c *Configuration) PromptString() string {
	if c.Prompt != "" {
		return c.Prompt
	}
	return c.Name + "> "
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// OpenHistoryLog opens the history log in an append only state.
func (c *Configuration) OpenHistoryLog() (afero.File, error) {
	return c.fs().OpenFile(HistoryLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadHistoryLog opens the history log for reading.
func (c *Configuration) ReadHistoryLog() (afero.File, error) {
	return c.fs().OpenFile(HistoryLogName, os.O_RDONLY, 0600)
}

// HostKeyPem returns the bytes of the host private key.
func (c *Configuration) HostKeyPem() ([]byte, error) {
	return afero.ReadFile(c.fs(), c.SSH.HostKey)
}

// WriteHostKeyPem stores a freshly generated host private key.
func (c *Configuration) WriteHostKeyPem(pemBytes []byte) error {
	return afero.WriteFile(c.fs(), c.SSH.HostKey, pemBytes, 0600)
}

// ReadAuthorizedKeys returns the bytes of the authorized_keys file.
func (c *Configuration) ReadAuthorizedKeys() ([]byte, error) {
	return afero.ReadFile(c.fs(), c.SSH.AuthorizedKeys)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
