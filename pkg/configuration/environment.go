package configuration

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

// Use returns the process-wide configuration, loading it on first call.
func Use() *Configuration {
	return singleton()
}

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
	Name     string `env:"DB_NAME" envDefault:"backoffice"`
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

type SmsOptions struct {
	// MaxRetryTimes bounds wrong-code submissions before lockout. The system
	// this replaces read the value from configuration but verified against a
	// hardcoded 3; here the configured value is honored.
	MaxRetryTimes int           `env:"SMS_MAX_RETRY_TIMES" envDefault:"3"`
	ServerAddress string        `env:"SMS_SERVER_ADDRESS" envDefault:"http://localhost:9010"`
	AppName       string        `env:"SMS_APP_NAME" envDefault:"backoffice"`
	DebugMode     bool          `env:"SMS_DEBUG_MODE" envDefault:"false"`
	OtpExpiry     time.Duration `env:"OTP_EXPIRY" envDefault:"5m"`
}

type ProvisioningOptions struct {
	AdminRoleName    string `env:"PROVISION_ADMIN_ROLE" envDefault:"Admin"`
	AdminOrgUnitName string `env:"PROVISION_ADMIN_ORG_UNIT" envDefault:"AdminGroup"`
	AdminUserName    string `env:"PROVISION_ADMIN_USER" envDefault:"admin"`
	AdminPassword    string `env:"PROVISION_ADMIN_PASSWORD" envDefault:"123qwe"`
}

type Configuration struct {
	Database     DatabaseOptions
	Sms          SmsOptions
	Provisioning ProvisioningOptions

	RedisURL         string `env:"REDIS_URL" envDefault:"localhost:6379"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`

	logger *logrus.Logger
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

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	c.logger = logrus.New()
	c.logger.SetLevel(c.LogrusLogLevel())
	if c.GoAppEnvironment == Production {
		c.logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		c.logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
