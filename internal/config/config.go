// Package config loads tcvalidate settings. Sources apply in increasing
// precedence: built-in defaults, a YAML file, a .env file, TCV_*
// environment variables and finally command-line flags (applied by the
// caller on the returned Config).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/check"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TCV_"

// Content sources.
const (
	SourceDoor43      = "door43"
	SourceDir         = "dir"
	SourceArchive     = "archive"
	SourceObjectStore = "objectstore"
)

// Checking mirrors the recognized checking options.
type Checking struct {
	ExcerptLength                    int    `yaml:"excerptLength"`
	CutoffPriorityLevel              int    `yaml:"cutoffPriorityLevel"`
	DisableAllLinkFetching           bool   `yaml:"disableAllLinkFetchingFlag"`
	DisableLinkedTAArticlesCheck     bool   `yaml:"disableLinkedTAArticlesCheckFlag"`
	DisableLinkedTWArticlesCheck     bool   `yaml:"disableLinkedTWArticlesCheckFlag"`
	DisableLexiconLinkFetching       bool   `yaml:"disableLexiconLinkFetchingFlag"`
	DisableLinkedLexiconEntriesCheck bool   `yaml:"disableLinkedLexiconEntriesCheckFlag"`
	SuppressNoticeDisabling          bool   `yaml:"suppressNoticeDisablingFlag"`
	TARepoUsername                   string `yaml:"taRepoUsername"`
	TARepoBranch                     string `yaml:"taRepoBranch"`
	TARepoLanguageCode               string `yaml:"taRepoLanguageCode"`
	TARepoSectionName                string `yaml:"taRepoSectionName"`
	TWRepoUsername                   string `yaml:"twRepoUsername"`
	TWRepoBranch                     string `yaml:"twRepoBranch"`
	OriginalLanguageRepoUsername     string `yaml:"originalLanguageRepoUsername"`
	OriginalLanguageRepoBranch       string `yaml:"originalLanguageRepoBranch"`
}

// Config is the complete tcvalidate configuration.
type Config struct {
	Checking Checking `yaml:"checking"`

	Source      string        `yaml:"source"`
	SourceRoot  string        `yaml:"sourceRoot"`
	Door43URL   string        `yaml:"door43URL"`
	HTTPTimeout time.Duration `yaml:"httpTimeout"`

	CacheDir    string        `yaml:"cacheDir"`
	CacheSize   int           `yaml:"cacheSize"`
	CacheMaxAge time.Duration `yaml:"cacheMaxAge"`
	CheckedTTL  time.Duration `yaml:"checkedTTL"`

	ObjectStore fetch.ObjectStoreConfig `yaml:"objectStore"`

	RulesFile string `yaml:"rulesFile"`
	Listen    string `yaml:"listen"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Checking: Checking{
			ExcerptLength: check.DefaultExcerptLength,
		},
		Source:      SourceDoor43,
		Door43URL:   fetch.DefaultDoor43URL,
		HTTPTimeout: 30 * time.Second,
		CacheSize:   fetch.DefaultCacheSize,
		CacheMaxAge: 24 * time.Hour,
		Listen:      ":8080",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load builds a Config from the defaults, the YAML file at path and the
// .env file at envFile, then the process environment. Empty paths are
// skipped; a missing .env file is not an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.NewIO("read config", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(errors.NewParse("yaml", path, err.Error()), "load config")
		}
	}

	env := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil && !os.IsNotExist(err) {
			return cfg, errors.NewIO("read env file", envFile, err)
		}
		for k, v := range values {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	if err := cfg.applyEnv(env); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

type setter func(c *Config, v string) error

func str(field func(c *Config) *string) setter {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func boolean(field func(c *Config) *bool) setter {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func integer(field func(c *Config) *int) setter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func duration(field func(c *Config) *time.Duration) setter {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

// envSetters maps variable names (without EnvPrefix) to config fields.
var envSetters = map[string]setter{
	"EXCERPT_LENGTH":                  integer(func(c *Config) *int { return &c.Checking.ExcerptLength }),
	"CUTOFF_PRIORITY_LEVEL":           integer(func(c *Config) *int { return &c.Checking.CutoffPriorityLevel }),
	"DISABLE_ALL_LINK_FETCHING":       boolean(func(c *Config) *bool { return &c.Checking.DisableAllLinkFetching }),
	"DISABLE_LINKED_TA_ARTICLES":      boolean(func(c *Config) *bool { return &c.Checking.DisableLinkedTAArticlesCheck }),
	"DISABLE_LINKED_TW_ARTICLES":      boolean(func(c *Config) *bool { return &c.Checking.DisableLinkedTWArticlesCheck }),
	"DISABLE_LEXICON_LINK_FETCHING":   boolean(func(c *Config) *bool { return &c.Checking.DisableLexiconLinkFetching }),
	"DISABLE_LINKED_LEXICON_ENTRIES":  boolean(func(c *Config) *bool { return &c.Checking.DisableLinkedLexiconEntriesCheck }),
	"SUPPRESS_NOTICE_DISABLING":       boolean(func(c *Config) *bool { return &c.Checking.SuppressNoticeDisabling }),
	"TA_REPO_USERNAME":                str(func(c *Config) *string { return &c.Checking.TARepoUsername }),
	"TA_REPO_BRANCH":                  str(func(c *Config) *string { return &c.Checking.TARepoBranch }),
	"TA_REPO_LANGUAGE_CODE":           str(func(c *Config) *string { return &c.Checking.TARepoLanguageCode }),
	"TA_REPO_SECTION_NAME":            str(func(c *Config) *string { return &c.Checking.TARepoSectionName }),
	"TW_REPO_USERNAME":                str(func(c *Config) *string { return &c.Checking.TWRepoUsername }),
	"TW_REPO_BRANCH":                  str(func(c *Config) *string { return &c.Checking.TWRepoBranch }),
	"ORIGINAL_LANGUAGE_REPO_USERNAME": str(func(c *Config) *string { return &c.Checking.OriginalLanguageRepoUsername }),
	"ORIGINAL_LANGUAGE_REPO_BRANCH":   str(func(c *Config) *string { return &c.Checking.OriginalLanguageRepoBranch }),
	"SOURCE":                          str(func(c *Config) *string { return &c.Source }),
	"SOURCE_ROOT":                     str(func(c *Config) *string { return &c.SourceRoot }),
	"DOOR43_URL":                      str(func(c *Config) *string { return &c.Door43URL }),
	"HTTP_TIMEOUT":                    duration(func(c *Config) *time.Duration { return &c.HTTPTimeout }),
	"CACHE_DIR":                       str(func(c *Config) *string { return &c.CacheDir }),
	"CACHE_SIZE":                      integer(func(c *Config) *int { return &c.CacheSize }),
	"CACHE_MAX_AGE":                   duration(func(c *Config) *time.Duration { return &c.CacheMaxAge }),
	"CHECKED_TTL":                     duration(func(c *Config) *time.Duration { return &c.CheckedTTL }),
	"S3_ENDPOINT":                     str(func(c *Config) *string { return &c.ObjectStore.Endpoint }),
	"S3_REGION":                       str(func(c *Config) *string { return &c.ObjectStore.Region }),
	"S3_ACCESS_KEY":                   str(func(c *Config) *string { return &c.ObjectStore.AccessKey }),
	"S3_SECRET_KEY":                   str(func(c *Config) *string { return &c.ObjectStore.SecretKey }),
	"S3_BUCKET":                       str(func(c *Config) *string { return &c.ObjectStore.Bucket }),
	"S3_USE_SSL":                      boolean(func(c *Config) *bool { return &c.ObjectStore.UseSSL }),
	"RULES_FILE":                      str(func(c *Config) *string { return &c.RulesFile }),
	"LISTEN":                          str(func(c *Config) *string { return &c.Listen }),
	"LOG_LEVEL":                       str(func(c *Config) *string { return &c.LogLevel }),
	"LOG_FORMAT":                      str(func(c *Config) *string { return &c.LogFormat }),
}

func (c *Config) applyEnv(env map[string]string) error {
	for k, v := range env {
		name, ok := strings.CutPrefix(k, EnvPrefix)
		if !ok {
			continue
		}
		set, ok := envSetters[name]
		if !ok {
			continue
		}
		if err := set(c, strings.TrimSpace(v)); err != nil {
			return errors.Wrapf(errors.NewValidation(k, err.Error()), "environment")
		}
	}
	return nil
}

// Validate checks values that have a fixed vocabulary or range.
func (c Config) Validate() error {
	switch c.Source {
	case SourceDoor43, SourceObjectStore:
	case SourceDir, SourceArchive:
		if c.SourceRoot == "" {
			return errors.NewValidation("sourceRoot", fmt.Sprintf("source %q needs a root directory", c.Source))
		}
	default:
		return errors.NewValidation("source", fmt.Sprintf("unknown content source %q", c.Source))
	}
	if c.Source == SourceObjectStore && (c.ObjectStore.Endpoint == "" || c.ObjectStore.Bucket == "") {
		return errors.NewValidation("objectStore", "endpoint and bucket are required")
	}
	if c.Checking.ExcerptLength < 0 {
		return errors.NewValidation("excerptLength", "must not be negative")
	}
	if c.Checking.CutoffPriorityLevel < 0 || c.Checking.CutoffPriorityLevel > 999 {
		return errors.NewValidation("cutoffPriorityLevel", "must be between 0 and 999")
	}
	return nil
}

// Options returns the checking options. Runtime collaborators (fetcher,
// caches, rules) are attached by Runtime.Options.
func (c Config) Options() check.Options {
	k := c.Checking
	return check.Options{
		ExcerptLength:                    k.ExcerptLength,
		CutoffPriorityLevel:              k.CutoffPriorityLevel,
		DisableAllLinkFetching:           k.DisableAllLinkFetching,
		DisableLinkedTAArticlesCheck:     k.DisableLinkedTAArticlesCheck,
		DisableLinkedTWArticlesCheck:     k.DisableLinkedTWArticlesCheck,
		DisableLexiconLinkFetching:       k.DisableLexiconLinkFetching,
		DisableLinkedLexiconEntriesCheck: k.DisableLinkedLexiconEntriesCheck,
		SuppressNoticeDisabling:          k.SuppressNoticeDisabling,
		TARepoUsername:                   k.TARepoUsername,
		TARepoBranch:                     k.TARepoBranch,
		TARepoLanguageCode:               k.TARepoLanguageCode,
		TARepoSectionName:                k.TARepoSectionName,
		TWRepoUsername:                   k.TWRepoUsername,
		TWRepoBranch:                     k.TWRepoBranch,
		OriginalLanguageRepoUsername:     k.OriginalLanguageRepoUsername,
		OriginalLanguageRepoBranch:       k.OriginalLanguageRepoBranch,
	}
}
