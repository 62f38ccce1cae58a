package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cargoflow/cargoflow/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"cargoflow"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// ImportOptions bounds the import pipeline. It is passed into services
// explicitly at construction time; the pipeline never reads ambient state.
type ImportOptions struct {
	// BatchSize is the number of rows processed between two progress
	// write-backs of an asynchronous import task.
	BatchSize int `env:"IMPORT_BATCH_SIZE" envDefault:"25"`
	// ErrorCap bounds the per-task persisted error list. Errors beyond the
	// cap are counted but summarized.
	ErrorCap int `env:"IMPORT_ERROR_CAP" envDefault:"100"`
	// SuggestionLimit caps ranked suggestions per unmatched row.
	SuggestionLimit int   `env:"IMPORT_SUGGESTION_LIMIT" envDefault:"5"`
	MaxUploadSize   int64 `env:"IMPORT_MAX_UPLOAD_SIZE" envDefault:"10485760"`
	// Workers and QueueCapacity size the in-process task queue.
	Workers       int `env:"IMPORT_WORKERS" envDefault:"2"`
	QueueCapacity int `env:"IMPORT_QUEUE_CAPACITY" envDefault:"64"`
}

func (o *ImportOptions) Validate() error {
	if o.BatchSize <= 0 {
		return fmt.Errorf("import BatchSize must be positive, got %d", o.BatchSize)
	}
	if o.ErrorCap <= 0 {
		return fmt.Errorf("import ErrorCap must be positive, got %d", o.ErrorCap)
	}
	if o.SuggestionLimit <= 0 {
		return fmt.Errorf("import SuggestionLimit must be positive, got %d", o.SuggestionLimit)
	}
	if o.Workers <= 0 {
		return fmt.Errorf("import Workers must be positive, got %d", o.Workers)
	}
	return nil
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Import     ImportOptions
	Prometheus PrometheusOptions

	MigrationsDir    string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
