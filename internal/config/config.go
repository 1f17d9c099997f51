package config

import (
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/castings/internal/casting"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath   string `toml:"db_path" yaml:"db_path" comment:"файл базы данных SQLite"`
	LogLevel string `toml:"log_level" yaml:"log_level" comment:"уровень логирования: dbg|inf|wrn|err"`
	API      API    `toml:"api" yaml:"api"`
	Web      Web    `toml:"web" yaml:"web"`
}

type API struct {
	Addr string `toml:"addr" yaml:"addr" comment:"адрес HTTP сервера API"`
}

type Web struct {
	Addr          string        `toml:"addr" yaml:"addr" comment:"адрес HTTP сервера веб-интерфейса"`
	APIBaseURL    string        `toml:"api_base_url" yaml:"api_base_url" comment:"базовый URL API"`
	LookupTimeout time.Duration `toml:"lookup_timeout" yaml:"lookup_timeout" comment:"таймаут запроса одной отливки"`
	QueryTimeout  time.Duration `toml:"query_timeout" yaml:"query_timeout" comment:"таймаут запросов списка и поиска"`
	PageSize      int           `toml:"page_size" yaml:"page_size" comment:"количество строк на странице просмотра"`
}

func Default() Config {
	return Config{
		DBPath:   "castings.db",
		LogLevel: "inf",
		API: API{
			Addr: ":8000",
		},
		Web: Web{
			Addr:          ":5000",
			APIBaseURL:    "http://localhost:8000",
			LookupTimeout: 5 * time.Second,
			QueryTimeout:  10 * time.Second,
			PageSize:      20,
		},
	}
}

// Load reads filename over the defaults. A missing file is not an error.
// Files ending in .yaml or .yml are YAML, anything else is TOML.
func Load(filename string) (Config, error) {
	c := Default()
	if filename == "" {
		return c, nil
	}
	b, err := ioutil.ReadFile(filename)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, merry.Wrap(err)
	}
	if isYaml(filename) {
		err = yaml.Unmarshal(b, &c)
	} else {
		err = toml.Unmarshal(b, &c)
	}
	if err != nil {
		return c, merry.Append(err, filename)
	}
	return c, nil
}

func Save(filename string, c Config) error {
	var (
		b   []byte
		err error
	)
	if isYaml(filename) {
		b, err = yaml.Marshal(c)
	} else {
		b, err = toml.Marshal(c)
	}
	if err != nil {
		return merry.Wrap(err)
	}
	return merry.Wrap(ioutil.WriteFile(filename, b, 0666))
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return merry.New("db_path: must not be empty")
	}
	switch c.LogLevel {
	case "dbg", "inf", "wrn", "err":
	default:
		return merry.Errorf("log_level: one of dbg|inf|wrn|err expected, got %q", c.LogLevel)
	}
	if c.API.Addr == "" {
		return merry.New("api.addr: must not be empty")
	}
	if c.Web.Addr == "" {
		return merry.New("web.addr: must not be empty")
	}
	u, err := url.Parse(c.Web.APIBaseURL)
	if err != nil {
		return merry.Append(err, "web.api_base_url")
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return merry.Errorf("web.api_base_url: absolute http(s) URL expected: %q", c.Web.APIBaseURL)
	}
	if c.Web.LookupTimeout <= 0 || c.Web.QueryTimeout <= 0 {
		return merry.New("web: timeouts must be positive")
	}
	if c.Web.PageSize < 1 || c.Web.PageSize > casting.MaxLimit {
		return merry.Errorf("web.page_size: must be between 1 and %d, got %d", casting.MaxLimit, c.Web.PageSize)
	}
	return nil
}

func isYaml(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
