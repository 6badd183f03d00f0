package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/shellfyre/core/history"
	"github.com/josephlewis42/shellfyre/core/proctree"
	"github.com/josephlewis42/shellfyre/core/record"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	PrivateKeyName    = "host_key"
	DefaultDirName    = ".shellfyre"
)

// Proc tree backends.
const (
	BackendKernelModule = "kernel_module"
	BackendProcfs       = "procfs"
)

type Configuration struct {
	configFs         afero.Fs
	configurationDir string

	Prompt           string `json:"prompt" validate:"required"`
	DirectoryHistory string `json:"directory_history" validate:"required"`
	RecordFile       string `json:"record_file" validate:"required"`
	AppLog           string `json:"app_log" validate:"required"`
	SearchPath       string `json:"search_path"`

	Joke     Joke     `json:"joke"`
	ProcTree ProcTree `json:"proc_tree"`
	SSH      SSH      `json:"ssh"`
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

type Joke struct {
	URL            string `json:"url" validate:"required,url"`
	BytesPerSecond int64  `json:"bytes_per_second" validate:"gt=0"`
	Schedule       string `json:"schedule" validate:"required"`
}

type ProcTree struct {
	Backend   string `json:"backend" validate:"oneof=kernel_module procfs"`
	ClearLog  string `json:"clear_log"`
	Install   string `json:"install" validate:"required"`
	Uninstall string `json:"uninstall" validate:"required"`
	ReadLog   string `json:"read_log" validate:"required"`
}

type SSH struct {
	Port       int    `json:"port" validate:"gte=0,lte=65535"`
	Banner     string `json:"banner"`
	Recordings string `json:"recordings"`
	Users      []User `json:"users" validate:"unique=Username,dive"`
}

type User struct {
	Username  string   `json:"username" validate:"required"`
	Passwords []string `json:"passwords" validate:"unique"`
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewBasePathFs(afero.NewOsFs(), c.configurationDir)
	}
	return c.configFs
}

// Dir returns the configuration directory.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// DirHistory returns the store of visited directories.
func (c *Configuration) DirHistory() *history.DirHistory {
	return history.New(c.fs(), c.DirectoryHistory)
}

// Record returns the store for the game record.
func (c *Configuration) Record() *record.Store {
	return record.New(c.fs(), c.RecordFile)
}

// PrivateKeyPem returns the bytes of the SSH host key.
func (c *Configuration) PrivateKeyPem() ([]byte, error) {
	return afero.ReadFile(c.fs(), PrivateKeyName)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.AppLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.AppLog, os.O_RDONLY, 0600)
}

// CreateSessionRecording creates a new file for recording an SSH session. It
// returns nil if recording is disabled.
func (c *Configuration) CreateSessionRecording(name string) (afero.File, error) {
	if c.SSH.Recordings == "" {
		return nil, nil
	}

	if err := c.fs().MkdirAll(c.SSH.Recordings, 0700); err != nil {
		return nil, err
	}
	return c.fs().OpenFile(filepath.Join(c.SSH.Recordings, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
}

// RecordingsDir returns the absolute path of the session recordings.
func (c *Configuration) RecordingsDir() string {
	if c.SSH.Recordings == "" {
		return ""
	}
	return filepath.Join(c.configurationDir, c.SSH.Recordings)
}

// GetPasswords returns allowable passwords for the given username.
func (c *Configuration) GetPasswords(username string) []string {
	var out []string
	for _, v := range c.SSH.Users {
		if v.Username == username {
			out = append(out, v.Passwords...)
		}
	}
	return out
}

// ResolvedSearchPath returns the program search path, falling back to $PATH.
func (c *Configuration) ResolvedSearchPath() string {
	if c.SearchPath != "" {
		return c.SearchPath
	}
	return os.Getenv("PATH")
}

// ProcTreeService builds the configured process tree backend. run is used by
// backends that shell out.
func (c *Configuration) ProcTreeService(run proctree.Runner) proctree.Service {
	if c.ProcTree.Backend == BackendProcfs {
		return proctree.NewProcfs()
	}

	module := &proctree.KernelModule{
		ClearLog:  c.ProcTree.ClearLog,
		Install:   c.ProcTree.Install,
		Uninstall: c.ProcTree.Uninstall,
		ReadLog:   c.ProcTree.ReadLog,
		Run:       run,
	}
	return module.Service()
}

// DefaultDir returns the configuration directory used when none is given.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// Default returns the built-in configuration with its files stored on fsys.
func Default(fsys afero.Fs) *Configuration {
	cfg := defaultConfig()
	cfg.configFs = fsys
	return cfg
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
