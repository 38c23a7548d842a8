package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/invstream/logger"
)

// FileSystem is what the loader needs from the disk.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadEnv adds the file's variables to the process environment without
// overriding ones already set.
func (OSFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

// Sources records the files a load used. Empty means none was found.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

type loader struct {
	fs         FileSystem
	configFile string
	envFile    string
	defaults   map[string]any
	log        *logger.Logger
}

type Option func(*loader)

func WithFileSystem(fs FileSystem) Option {
	return func(l *loader) { l.fs = fs }
}

// WithConfigFile skips the search. Unlike a searched file, a missing
// explicit file is an error.
func WithConfigFile(path string) Option {
	return func(l *loader) { l.configFile = path }
}

func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// WithDefaults seeds values by dotted key, e.g. "stream.buffer_size".
func WithDefaults(defaults map[string]any) Option {
	return func(l *loader) { l.defaults = defaults }
}

func WithLogger(log *logger.Logger) Option {
	return func(l *loader) { l.log = log }
}

// Configurable configs get ApplyDefaults and Validate after loading.
type Configurable interface {
	ApplyDefaults()
	Validate() error
}

// LoadConfig fills cfg for the named command. Later sources win: defaults,
// the config file, then the environment, a .env file included. Every
// mapstructure key of cfg can be set from the environment by its upper
// snake case name, so stream.connect_timeout reads STREAM_CONNECT_TIMEOUT.
func LoadConfig(name string, cfg any, opts ...Option) error {
	l := &loader{fs: OSFileSystem{}}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.WithComponent("config")
	}

	src, err := l.locate(name)
	if err != nil {
		return err
	}
	if err := l.read(cfg, src); err != nil {
		return fmt.Errorf("load %s config: %w", name, err)
	}

	if c, ok := cfg.(Configurable); ok {
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid %s config: %w", name, err)
		}
	}
	return nil
}

func (l *loader) locate(name string) (Sources, error) {
	src := Sources{ConfigFile: l.configFile, EnvFile: l.envFile}
	if src.ConfigFile != "" && !l.fs.Exists(src.ConfigFile) {
		return src, fmt.Errorf("config file %s not found", src.ConfigFile)
	}
	configs, envs := searchPaths(name)
	if src.ConfigFile == "" {
		src.ConfigFile = l.firstExisting(configs)
	}
	if src.EnvFile == "" {
		src.EnvFile = l.firstExisting(envs)
	}
	return src, nil
}

func (l *loader) firstExisting(paths []string) string {
	for _, p := range paths {
		if l.fs.Exists(p) {
			return p
		}
	}
	return ""
}

// searchPaths lists candidate files, most specific first. Commands run
// from the repository root, their own directory or a test package.
func searchPaths(name string) (configs, envs []string) {
	for _, root := range []string{".", "..", "../.."} {
		configs = append(configs, root+"/cmd/"+name+"/config.yml")
	}
	configs = append(configs, "./config/config.yml", "./config.yml")

	for _, file := range []string{".env." + name, ".env"} {
		for _, dir := range []string{"./cmd/" + name, "../cmd/" + name, ".", ".."} {
			envs = append(envs, dir+"/"+file)
		}
	}
	return configs, envs
}

func (l *loader) read(cfg any, src Sources) error {
	v := viper.New()
	for k, val := range l.defaults {
		v.SetDefault(k, val)
	}

	if src.ConfigFile != "" {
		v.SetConfigFile(src.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", src.ConfigFile, err)
		}
		l.log.Debug("config file loaded", logger.Fields("path", src.ConfigFile))
	}
	if src.EnvFile != "" {
		if err := l.fs.LoadEnv(src.EnvFile); err != nil {
			l.log.Warn("env file not loaded", logger.Fields("path", src.EnvFile, logger.FieldError, err.Error()))
		}
	}

	for _, key := range keysOf(reflect.TypeOf(cfg), "") {
		if err := v.BindEnv(key, envName(key)); err != nil {
			return err
		}
	}
	return v.Unmarshal(cfg)
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

var durationType = reflect.TypeFor[time.Duration]()

// keysOf returns the dotted mapstructure keys of every leaf field of t.
// Squashed embedded structs share their parent's prefix.
func keysOf(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == durationType {
		if prefix == "" {
			return nil
		}
		return []string{prefix}
	}

	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if tag == "-" {
			continue
		}
		if strings.Contains(opts, "squash") {
			keys = append(keys, keysOf(f.Type, prefix)...)
			continue
		}
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		if prefix != "" {
			tag = prefix + "." + tag
		}
		keys = append(keys, keysOf(f.Type, tag)...)
	}
	return keys
}
