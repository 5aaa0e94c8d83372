package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/annotpipe/logger"
)

// legacyEnv lists the variables earlier deployments used for a key. They are
// consulted after the key's own variable.
var legacyEnv = map[string][]string{
	"pipeline.spec_file": {"TNPP_MODEL"},
	"pipeline.name":      {"TNPP_PIPELINE"},
	"pipeline.max_char":  {"TNPP_MAX_CHARS"},
}

// configDirs are searched in order for config.yml; %s is the service name.
var configDirs = []string{
	"./cmd/%s",
	"./config",
	".",
	"/etc/%s",
}

// envDirs are searched in order for .env.<service> and then .env.
var envDirs = []string{
	".",
	"./cmd/%s",
}

// FileSystem abstracts file lookups for the resolver.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem reads the local disk.
type RealFileSystem struct{}

// Exists reports whether path can be stat'ed.
func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file into the process environment without
// overriding variables that are already set.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Sources are the files a load reads from. Empty means none was found.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

// Resolver finds the config and env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolveFiles keeps explicit paths and searches for the rest.
func (r *Resolver) ResolveFiles(service string, lc LoaderConfig) Sources {
	src := Sources{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if src.ConfigFile == "" {
		src.ConfigFile = r.first(candidates(configDirs, service, "config.yml"))
	}
	if src.EnvFile == "" {
		names := append(candidates(envDirs, service, ".env."+service), candidates(envDirs, service, ".env")...)
		src.EnvFile = r.first(names)
	}
	return src
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

func candidates(dirs []string, service, file string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if strings.Contains(d, "%s") {
			d = fmt.Sprintf(d, service)
		}
		if d == "." {
			out = append(out, file)
			continue
		}
		out = append(out, d+"/"+file)
	}
	return out
}

// LoaderConfig holds the loader's filesystem and optional explicit paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the disk used for lookups.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig decodes the service configuration into cfg, which must be a
// pointer to a struct with mapstructure tags. The YAML file is the base;
// every tagged leaf can then be overridden by its upper snake case
// variable. A config file that exists but cannot be parsed is an error;
// a missing one is not.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	src := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(service, lc)

	v := viper.New()
	if src.ConfigFile != "" && lc.FileSystem.Exists(src.ConfigFile) {
		v.SetConfigFile(src.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", filepath.Clean(src.ConfigFile), err)
		}
	}
	if src.EnvFile != "" && lc.FileSystem.Exists(src.EnvFile) {
		if err := lc.FileSystem.LoadEnv(src.EnvFile); err != nil {
			logger.Warn("failed to load .env file", logger.Fields("path", src.EnvFile, logger.FieldError, err.Error()))
		}
	}

	for _, key := range keysOf(reflect.TypeOf(cfg), "") {
		names := append([]string{key, envName(key)}, legacyEnv[key]...)
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		flattenStringMapHook(),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return fmt.Errorf("decoding %s config: %w", service, err)
	}
	return nil
}

// envName maps "pipeline.large_watermark" to PIPELINE_LARGE_WATERMARK.
func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

var durationType = reflect.TypeOf(time.Duration(0))

// keysOf lists the dotted mapstructure keys of every scalar leaf in t.
// Squashed structs share their parent's prefix; maps are left to the file.
func keysOf(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if opts == "squash" {
			keys = append(keys, keysOf(f.Type, prefix)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		switch {
		case ft == durationType:
			keys = append(keys, key)
		case ft.Kind() == reflect.Struct:
			keys = append(keys, keysOf(ft, key)...)
		case ft.Kind() == reflect.Map:
		default:
			keys = append(keys, key)
		}
	}
	return keys
}

// flattenStringMapHook decodes nested maps into map[string]string with
// dot-joined keys. Viper splits "tokenize.lemma" into nested maps, and
// extra_args wants them back as "stage.flag" keys.
func flattenStringMapHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(map[string]string{})
	return func(from, to reflect.Type, data any) (any, error) {
		if to != target || from.Kind() != reflect.Map {
			return data, nil
		}
		m, ok := data.(map[string]any)
		if !ok {
			return data, nil
		}
		out := make(map[string]string, len(m))
		flatten("", m, out)
		return out, nil
	}
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = fmt.Sprint(val)
	}
}
