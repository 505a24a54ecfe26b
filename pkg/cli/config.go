package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/codenest/promptcanvas/pkg/adapter"
	"github.com/codenest/promptcanvas/pkg/usecase/generation"
	"github.com/codenest/promptcanvas/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	backendFile      = "file"
	backendGCS       = "gcs"
	backendFirestore = "firestore"
	backendMemory    = "memory"
)

// config holds configuration values
type config struct {
	logLevel   string
	configPath string

	// Output
	outputDir string
	endpoint  string

	// History backend
	historyBackend    string
	dataDir           string
	gcsBucket         string
	gcsPrefix         string
	firestoreProject  string
	firestoreDatabase string

	// Generation defaults, only settable from the config file
	defaultModel string
	defaultRatio string
	defaultStyle string
	styles       map[string]string
}

// fileConfig is the YAML config file layout
type fileConfig struct {
	Endpoint string            `yaml:"endpoint"`
	Output   string            `yaml:"output"`
	Model    string            `yaml:"model"`
	Ratio    string            `yaml:"ratio"`
	Style    string            `yaml:"style"`
	Styles   map[string]string `yaml:"styles"`
	History  struct {
		Backend           string `yaml:"backend"`
		DataDir           string `yaml:"data_dir"`
		GCSBucket         string `yaml:"gcs_bucket"`
		GCSPrefix         string `yaml:"gcs_prefix"`
		FirestoreProject  string `yaml:"firestore_project"`
		FirestoreDatabase string `yaml:"firestore_database"`
	} `yaml:"history"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("PROMPTCANVAS_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("PROMPTCANVAS_CONFIG"),
			Destination: &cfg.configPath,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Directory for the displayed image and downloads",
			Value:       ".",
			Sources:     cli.EnvVars("PROMPTCANVAS_OUTPUT"),
			Destination: &cfg.outputDir,
		},
		&cli.StringFlag{
			Name:        "endpoint",
			Usage:       "Image generation endpoint; the prompt is appended as a path segment",
			Value:       generation.DefaultEndpoint,
			Sources:     cli.EnvVars("PROMPTCANVAS_ENDPOINT"),
			Destination: &cfg.endpoint,
		},
		&cli.StringFlag{
			Name:        "history-backend",
			Usage:       "History storage backend (file, gcs, firestore, memory)",
			Value:       backendFile,
			Sources:     cli.EnvVars("PROMPTCANVAS_HISTORY_BACKEND"),
			Destination: &cfg.historyBackend,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory of the file history backend",
			Sources:     cli.EnvVars("PROMPTCANVAS_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket of the gcs history backend",
			Sources:     cli.EnvVars("PROMPTCANVAS_GCS_BUCKET"),
			Destination: &cfg.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix of the gcs history backend",
			Value:       "promptcanvas",
			Sources:     cli.EnvVars("PROMPTCANVAS_GCS_PREFIX"),
			Destination: &cfg.gcsPrefix,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID of the firestore history backend",
			Sources:     cli.EnvVars("PROMPTCANVAS_FIRESTORE_PROJECT", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("PROMPTCANVAS_FIRESTORE_DATABASE", "FIRESTORE_DATABASE_ID"),
			Destination: &cfg.firestoreDatabase,
		},
	}
}

// setup applies the config file and installs the logger. Flags set on the
// command line or through env win over the file.
func (cfg *config) setup(ctx context.Context, c *cli.Command) (context.Context, error) {
	logger := logging.New(cfg.logLevel, c.Root().ErrWriter)
	logging.SetDefault(logger)
	ctx = logging.With(ctx, logger)

	if cfg.configPath == "" {
		return ctx, nil
	}

	data, err := os.ReadFile(cfg.configPath)
	if err != nil {
		return ctx, goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configPath))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return ctx, goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configPath))
	}
	cfg.apply(c, &fc)

	logger.Debug("config file loaded", "path", cfg.configPath, "backend", cfg.historyBackend)
	return ctx, nil
}

func (cfg *config) apply(c *cli.Command, fc *fileConfig) {
	overlay := func(flag string, dst *string, value string) {
		if value != "" && !c.IsSet(flag) {
			*dst = value
		}
	}

	overlay("endpoint", &cfg.endpoint, fc.Endpoint)
	overlay("output", &cfg.outputDir, fc.Output)
	overlay("history-backend", &cfg.historyBackend, fc.History.Backend)
	overlay("data-dir", &cfg.dataDir, fc.History.DataDir)
	overlay("gcs-bucket", &cfg.gcsBucket, fc.History.GCSBucket)
	overlay("gcs-prefix", &cfg.gcsPrefix, fc.History.GCSPrefix)
	overlay("firestore-project", &cfg.firestoreProject, fc.History.FirestoreProject)
	overlay("firestore-database", &cfg.firestoreDatabase, fc.History.FirestoreDatabase)

	cfg.defaultModel = fc.Model
	cfg.defaultRatio = fc.Ratio
	cfg.defaultStyle = fc.Style
	cfg.styles = fc.Styles
}

// newKVStore creates the history backend. The returned func releases it.
func (cfg *config) newKVStore(ctx context.Context) (adapter.KVStore, func(), error) {
	nop := func() {}

	switch cfg.historyBackend {
	case backendFile, "":
		dir := cfg.dataDir
		if dir == "" {
			d, err := defaultDataDir()
			if err != nil {
				return nil, nop, err
			}
			dir = d
		}
		store, err := adapter.NewFileStore(dir)
		if err != nil {
			return nil, nop, goerr.Wrap(err, "failed to create file store")
		}
		return store, nop, nil

	case backendGCS:
		if cfg.gcsBucket == "" {
			return nil, nop, goerr.New("gcs-bucket is required for the gcs backend")
		}
		store, err := adapter.NewStorage(ctx, cfg.gcsBucket, cfg.gcsPrefix)
		if err != nil {
			return nil, nop, goerr.Wrap(err, "failed to create storage")
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logging.From(ctx).Warn("failed to close storage", "error", err)
			}
		}, nil

	case backendFirestore:
		if cfg.firestoreProject == "" {
			return nil, nop, goerr.New("firestore-project is required for the firestore backend")
		}
		if cfg.firestoreDatabase == "" {
			return nil, nop, goerr.New("firestore-database is required for the firestore backend")
		}
		store, err := adapter.NewFirestore(ctx, cfg.firestoreProject, cfg.firestoreDatabase)
		if err != nil {
			return nil, nop, goerr.Wrap(err, "failed to create firestore")
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logging.From(ctx).Warn("failed to close firestore", "error", err)
			}
		}, nil

	case backendMemory:
		return adapter.NewMemory(), nop, nil

	default:
		return nil, nop, goerr.New("unsupported history backend",
			goerr.V("backend", cfg.historyBackend),
			goerr.V("supported", []string{backendFile, backendGCS, backendFirestore, backendMemory}))
	}
}

func defaultDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "promptcanvas"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".local", "share", "promptcanvas"), nil
}
