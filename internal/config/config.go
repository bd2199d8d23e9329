// Package config loads the contentsearch application configuration: the
// search provider, its credentials, the event stream, property stores and the
// index definitions.
package config

import (
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/hashicorp-forge/contentsearch/pkg/computed"
	"github.com/hashicorp-forge/contentsearch/pkg/database"
	"github.com/hashicorp-forge/contentsearch/pkg/indexconfig"
	"github.com/hashicorp-forge/contentsearch/pkg/search"
)

const (
	DefaultBrokers       = "localhost:19092"
	DefaultTopic         = "contentsearch.events"
	DefaultConsumerGroup = "contentsearch"
)

// Config is the root of the configuration file.
type Config struct {
	// LogLevel is the hclog level name. Defaults to "info".
	LogLevel string `hcl:"log_level,optional"`

	Providers      *Providers           `hcl:"providers,block"`
	Algolia        *Algolia             `hcl:"algolia,block"`
	Meilisearch    *Meilisearch         `hcl:"meilisearch,block"`
	Bleve          *Bleve               `hcl:"bleve,block"`
	Kafka          *Kafka               `hcl:"kafka,block"`
	PropertyStores []PropertyStore      `hcl:"property_store,block"`
	Indexes        []*indexconfig.Index `hcl:"index,block"`
}

// Providers selects the backends.
type Providers struct {
	Search string `hcl:"search"`
}

// Algolia configures the Algolia search client.
type Algolia struct {
	AppID        string `hcl:"app_id,optional"`
	WriteAPIKey  string `hcl:"write_api_key,optional"`
	WaitForTasks bool   `hcl:"wait_for_tasks,optional"`
}

// Meilisearch configures the Meilisearch search client.
type Meilisearch struct {
	Host         string `hcl:"host"`
	APIKey       string `hcl:"api_key,optional"`
	WaitForTasks bool   `hcl:"wait_for_tasks,optional"`
}

// Bleve configures the embedded Bleve index.
type Bleve struct {
	// IndexPath is the directory holding one index per definition. Empty
	// keeps indexes in memory.
	IndexPath string `hcl:"index_path,optional"`
}

// Kafka configures the event consumer.
type Kafka struct {
	Brokers          []string `hcl:"brokers,optional"`
	Topic            string   `hcl:"topic,optional"`
	ConsumerGroup    string   `hcl:"consumer_group,optional"`
	ConsumeFromStart bool     `hcl:"consume_from_start,optional"`
}

// PropertyStore is a named database that index property_store blocks refer
// to.
type PropertyStore struct {
	Name   string `hcl:"name,label"`
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// Load reads, defaults and validates the configuration file at path.
// Credentials in the environment override the file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.prepare(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode parses src as an HCL configuration. filename must end in ".hcl".
func Decode(filename string, src []byte) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, src, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.prepare(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) prepare() error {
	c.applyEnv()
	c.applyDefaults()
	if err := indexconfig.Prepare(c.Indexes, computed.DefaultRegistry().Names()); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnv overrides credentials and brokers from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("ALGOLIA_APP_ID"); v != "" {
		if c.Algolia == nil {
			c.Algolia = &Algolia{}
		}
		c.Algolia.AppID = v
	}
	if v := os.Getenv("ALGOLIA_WRITE_API_KEY"); v != "" {
		if c.Algolia == nil {
			c.Algolia = &Algolia{}
		}
		c.Algolia.WriteAPIKey = v
	}
	if v := os.Getenv("MEILISEARCH_API_KEY"); v != "" && c.Meilisearch != nil {
		c.Meilisearch.APIKey = v
	}
	if v := os.Getenv("REDPANDA_BROKERS"); v != "" {
		if c.Kafka == nil {
			c.Kafka = &Kafka{}
		}
		c.Kafka.Brokers = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Kafka == nil {
		c.Kafka = &Kafka{}
	}
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{DefaultBrokers}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = DefaultTopic
	}
	if c.Kafka.ConsumerGroup == "" {
		c.Kafka.ConsumerGroup = DefaultConsumerGroup
	}
	for i := range c.PropertyStores {
		if c.PropertyStores[i].Driver == "" {
			c.PropertyStores[i].Driver = database.DriverSQLite
		}
	}
}

// Validate checks cross-block references and provider settings.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Providers == nil {
		result = multierror.Append(result, fmt.Errorf("providers block is required"))
	} else {
		err := validation.ValidateStruct(c.Providers,
			validation.Field(&c.Providers.Search,
				validation.Required,
				validation.In(
					string(search.ProviderTypeAlgolia),
					string(search.ProviderTypeMeilisearch),
					string(search.ProviderTypeBleve),
				),
			),
		)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("providers: %w", err))
		}

		switch search.ProviderType(c.Providers.Search) {
		case search.ProviderTypeAlgolia:
			if c.Algolia == nil {
				result = multierror.Append(result, fmt.Errorf("algolia block is required"))
			} else if err := validation.ValidateStruct(c.Algolia,
				validation.Field(&c.Algolia.AppID, validation.Required),
				validation.Field(&c.Algolia.WriteAPIKey, validation.Required),
			); err != nil {
				result = multierror.Append(result, fmt.Errorf("algolia: %w", err))
			}
		case search.ProviderTypeMeilisearch:
			if c.Meilisearch == nil {
				result = multierror.Append(result, fmt.Errorf("meilisearch block is required"))
			}
		}
	}

	if len(c.Indexes) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one index block is required"))
	}

	stores := make(map[string]bool, len(c.PropertyStores))
	for _, ps := range c.PropertyStores {
		if stores[ps.Name] {
			result = multierror.Append(result, fmt.Errorf("property_store %q: duplicate name", ps.Name))
		}
		stores[ps.Name] = true

		err := validation.ValidateStruct(&ps,
			validation.Field(&ps.Driver, validation.In(database.DriverSQLite, database.DriverPostgres)),
			validation.Field(&ps.DSN, validation.When(ps.Driver == database.DriverPostgres, validation.Required)),
		)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("property_store %q: %w", ps.Name, err))
		}
	}
	for _, idx := range c.Indexes {
		if idx.PropertyStore != nil && !stores[idx.PropertyStore.Database] {
			result = multierror.Append(result,
				fmt.Errorf("index %q: unknown property store %q", idx.Name, idx.PropertyStore.Database))
		}
	}

	return result.ErrorOrNil()
}

// Index returns the index definition called name.
func (c *Config) Index(name string) (*indexconfig.Index, error) {
	for _, idx := range c.Indexes {
		if idx.Name == name {
			return idx, nil
		}
	}
	return nil, fmt.Errorf("index %q is not defined", name)
}

// PropertyStore returns the property store called name.
func (c *Config) PropertyStore(name string) (PropertyStore, bool) {
	for _, ps := range c.PropertyStores {
		if ps.Name == name {
			return ps, true
		}
	}
	return PropertyStore{}, false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
