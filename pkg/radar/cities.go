package radar

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// CityEntry maps a canonical city key to each source's locale-specific
// identifier, plus the substrings accepted by the location predicate.
// Accepted substrings include the administrative region so broader geocoding
// from upstreams still matches.
type CityEntry struct {
	Key          string   `yaml:"key"`
	Country      string   `yaml:"country"`
	APICity      string   `yaml:"api_city"`
	GraphQLPlace string   `yaml:"graphql_place"`
	HTMLSlug     string   `yaml:"html_slug"`
	RawSlug      string   `yaml:"raw_slug"`
	Accepted     []string `yaml:"accepted"`
}

// defaultCities covers the launch cities. A YAML file can extend or replace
// entries at runtime.
var defaultCities = []CityEntry{
	{
		Key:          "paris",
		Country:      "FR",
		APICity:      "paris",
		GraphQLPlace: "France--Paris",
		HTMLSlug:     "paris",
		RawSlug:      "paris",
		Accepted:     []string{"paris", "île-de-france", "ile-de-france"},
	},
	{
		Key:          "lyon",
		Country:      "FR",
		APICity:      "lyon",
		GraphQLPlace: "France--Lyon",
		HTMLSlug:     "lyon",
		RawSlug:      "lyon",
		Accepted:     []string{"lyon", "auvergne-rhône-alpes", "auvergne-rhone-alpes"},
	},
	{
		Key:          "berlin",
		Country:      "DE",
		APICity:      "berlin",
		GraphQLPlace: "Germany--Berlin",
		HTMLSlug:     "berlin",
		RawSlug:      "berlin",
		Accepted:     []string{"berlin", "brandenburg"},
	},
	{
		Key:          "london",
		Country:      "GB",
		APICity:      "london",
		GraphQLPlace: "United-Kingdom--London",
		HTMLSlug:     "london",
		RawSlug:      "london",
		Accepted:     []string{"london", "greater london"},
	},
	{
		Key:          "amsterdam",
		Country:      "NL",
		APICity:      "amsterdam",
		GraphQLPlace: "Netherlands--Amsterdam",
		HTMLSlug:     "amsterdam",
		RawSlug:      "amsterdam",
		Accepted:     []string{"amsterdam", "noord-holland", "north holland"},
	},
}

// Cities holds the lookup table shared by all adapters. It can be
// hot-reloaded from a YAML file without restarting the engine.
type Cities struct {
	mu      sync.RWMutex
	entries map[string]CityEntry
	path    string
	log     zerolog.Logger
}

// NewCities builds the table from the built-in defaults.
func NewCities(log zerolog.Logger) *Cities {
	c := &Cities{
		entries: make(map[string]CityEntry, len(defaultCities)),
		log:     log.With().Str("component", "cities").Logger(),
	}
	for _, entry := range defaultCities {
		c.entries[entry.Key] = entry
	}
	return c
}

// Lookup resolves a canonical city key, case-insensitively. An unknown city
// is not an error: adapters simply match nothing for it.
func (c *Cities) Lookup(city string) (CityEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[strings.ToLower(strings.TrimSpace(city))]
	return entry, ok
}

// Keys returns the known canonical city keys.
func (c *Cities) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for key := range c.entries {
		out = append(out, key)
	}
	return out
}

// LoadFile merges entries from a YAML file over the current table.
func (c *Cities) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading city table: %w", err)
	}
	var file struct {
		Cities []CityEntry `yaml:"cities"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing city table: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range file.Cities {
		key := strings.ToLower(strings.TrimSpace(entry.Key))
		if key == "" {
			continue
		}
		entry.Key = key
		c.entries[key] = entry
	}
	c.path = path
	return nil
}

// Watch hot-reloads the city table whenever the backing file changes.
// Reload failures keep the previous table. Call the returned stop function
// to clean up.
func (c *Cities) Watch() (stop func(), err error) {
	if c.path == "" {
		return func() {}, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("city table watcher: %w", err)
	}
	if err := w.Add(c.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("city table watcher add %s: %w", c.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if err := c.LoadFile(c.path); err != nil {
						c.log.Warn().Err(err).Msg("City table reload failed, keeping previous table")
						continue
					}
					c.log.Info().Str("path", c.path).Msg("City table reloaded")
				}
			case <-w.Errors:
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}
