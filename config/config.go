// Package config holds the runtime configuration of the site, read from a
// YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/sylinko/everywhere-web/content"
	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/service/vo"
	"github.com/sylinko/everywhere-web/site"
	"gopkg.in/yaml.v3"
)

const envPrefix = "EVERYWHERE_"

var ErrInvalid = errors.New("invalid configuration")

type ContentServer struct {
	URL             string   `yaml:"url"`
	RootNodeID      string   `yaml:"rootNodeId"`
	MimeTypes       []string `yaml:"mimeTypes"`
	Groups          []string `yaml:"groups"`
	ContentSelector string   `yaml:"contentSelector"`
}

type Config struct {
	Addr            string   `yaml:"addr"`
	BaseURL         string   `yaml:"baseUrl"`
	DefaultLanguage string   `yaml:"defaultLanguage"`
	Languages       []string `yaml:"languages"`

	// ContentDir is a local tree laid out as <collection>/<lang>/<slug>.md.
	// It is ignored when a content server URL is set.
	ContentDir    string        `yaml:"contentDir"`
	ContentServer ContentServer `yaml:"contentServer"`

	// SearchDSN is the SQLite database of the search index. Empty keeps it
	// in memory.
	SearchDSN string          `yaml:"searchDsn"`
	EditURL   string          `yaml:"editUrl"`
	Downloads []site.Platform `yaml:"downloads"`
}

// Default returns the configuration of the public site.
func Default() Config {
	return Config{
		Addr:            ":3000",
		BaseURL:         "https://everywhere.sylinko.com",
		DefaultLanguage: "en-US",
		Languages:       []string{"en-US", "zh-CN"},
		ContentDir:      "web/content",
		Downloads: []site.Platform{
			{Key: "windows", Links: []site.DownloadLink{
				{Key: "installer", Name: "Installer", Note: ".msi", URL: "https://ghproxy.sylinko.com/download?product=everywhere&os=win-x64&type=setup&version=latest"},
				{Key: "portable", Name: "Portable", Note: ".zip", URL: "https://ghproxy.sylinko.com/download?product=everywhere&os=win-x64&type=zip&version=latest"},
			}},
			{Key: "macos", Links: []site.DownloadLink{
				{Key: "silicon", Name: "Apple Silicon (for M Series)", Note: ".pkg"},
				{Key: "intel", Name: "Intel (x64)", Note: ".pkg"},
			}},
			{Key: "linux", Links: []site.DownloadLink{
				{Key: "deb", Name: "Debian / Ubuntu", Note: ".deb"},
				{Key: "rpm", Name: "Fedora / RedHat", Note: ".rpm"},
				{Key: "aur", Name: "Arch Linux", Note: "AUR"},
			}},
		},
	}
}

// Load reads path over the defaults, applies EVERYWHERE_* environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		"ADDR":               &c.Addr,
		"BASE_URL":           &c.BaseURL,
		"DEFAULT_LANGUAGE":   &c.DefaultLanguage,
		"CONTENT_DIR":        &c.ContentDir,
		"CONTENT_SERVER_URL": &c.ContentServer.URL,
		"SEARCH_DSN":         &c.SearchDSN,
		"EDIT_URL":           &c.EditURL,
	}
	for key, target := range overrides {
		if value, ok := lookup(envPrefix + key); ok && value != "" {
			*target = value
		}
	}
	if value, ok := lookup(envPrefix + "LANGUAGES"); ok && value != "" {
		c.Languages = nil
		for _, l := range strings.Split(value, ",") {
			if l = strings.TrimSpace(l); l != "" {
				c.Languages = append(c.Languages, l)
			}
		}
	}
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is empty", ErrInvalid)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: baseUrl %q must be an absolute http(s) URL", ErrInvalid, c.BaseURL)
	}
	if _, err := c.Registry(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.ContentServer.URL == "" && c.ContentDir == "" {
		return fmt.Errorf("%w: either contentDir or contentServer.url is required", ErrInvalid)
	}
	return nil
}

func (c Config) Registry() (*i18n.Registry, error) {
	languages := make([]vo.Language, len(c.Languages))
	for i, l := range c.Languages {
		languages[i] = vo.Language(l)
	}
	return i18n.NewRegistry(vo.Language(c.DefaultLanguage), languages...)
}

// Remote reports whether content comes from a content server.
func (c Config) Remote() bool {
	return c.ContentServer.URL != ""
}

// RemoteSettings returns the content server settings for one collection.
// Collections live under <rootNodeId>-<collection> nodes, or under the
// collection name when no root node is configured.
func (c Config) RemoteSettings(collection vo.Collection) content.RemoteSettings {
	root := string(collection)
	if c.ContentServer.RootNodeID != "" {
		root = c.ContentServer.RootNodeID + "-" + string(collection)
	}
	return content.RemoteSettings{
		ContentServerURL: c.ContentServer.URL,
		RootNodeID:       root,
		MimeTypes:        c.ContentServer.MimeTypes,
		Groups:           c.ContentServer.Groups,
		ContentSelector:  c.ContentServer.ContentSelector,
	}
}

func (c Config) Site() site.Settings {
	return site.Settings{
		BaseURL:   c.BaseURL,
		Downloads: c.Downloads,
		EditURL:   c.EditURL,
	}
}
