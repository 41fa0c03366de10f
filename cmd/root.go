package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/logger"
)

const (
	app       = "talentlens"
	envPrefix = "TALENTLENS"
)

type Config struct {
	AI         AIConfig         `mapstructure:"ai"`
	Parser     ParserConfig     `mapstructure:"parser"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Server     ServerConfig     `mapstructure:"server"`
}

type AIConfig struct {
	Provider     string          `mapstructure:"provider" validate:"oneof=gemini openai"`
	Gemini       ProviderConfig  `mapstructure:"gemini"`
	OpenAI       ProviderConfig  `mapstructure:"openai"`
	RateLimit    RateLimitConfig `mapstructure:"rate-limit"`
	MaxLogLength int             `mapstructure:"max-log-length" validate:"gte=0"`
}

type ProviderConfig struct {
	APIKey     string        `mapstructure:"api-key" json:"-"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Model      string        `mapstructure:"model" validate:"required"`
	BaseURL    string        `mapstructure:"base-url" validate:"omitempty,url"`
	MaxRetries int           `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}

type ParserConfig struct {
	Provider         string           `mapstructure:"provider" validate:"oneof=llamaparse text"`
	LlamaParse       LlamaParseConfig `mapstructure:"llamaparse"`
	PlainTextLocally bool             `mapstructure:"plain-text-locally"`
}

type LlamaParseConfig struct {
	APIKey       string        `mapstructure:"api-key" json:"-"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	BaseURL      string        `mapstructure:"base-url" validate:"omitempty,url"`
	PollInterval time.Duration `mapstructure:"poll-interval" validate:"gte=0"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type NormalizerConfig struct {
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Seed        int     `mapstructure:"seed"`
}

type ScoringConfig struct {
	Strategy string      `mapstructure:"strategy" validate:"oneof=heuristic llm mock"`
	Fallback string      `mapstructure:"fallback" validate:"omitempty,oneof=heuristic llm mock,nefield=Strategy"`
	Judge    JudgeConfig `mapstructure:"judge"`
}

type JudgeConfig struct {
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=0.5"`
	Seed        int     `mapstructure:"seed"`
}

type StorageConfig struct {
	Backend           string   `mapstructure:"backend" validate:"oneof=memory s3"`
	MaxFileSize       int64    `mapstructure:"max-file-size" validate:"gt=0"`
	AllowedExtensions []string `mapstructure:"allowed-extensions" validate:"min=1,dive,required"`
	S3                S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey string `mapstructure:"access-key" json:"-"`
	SecretKey string `mapstructure:"secret-key" json:"-"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address" validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed-origins"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" validate:"gte=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentlens scores how well a resume fits a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Conventional variable names honoured in addition to the prefixed ones.
var envAliases = map[string][]string{
	"ai.gemini.api-key":         {"GEMINI_API_KEY"},
	"ai.openai.api-key":         {"OPENAI_API_KEY"},
	"parser.llamaparse.api-key": {"LLAMA_CLOUD_API_KEY"},
}

func init() {
	setDefaults(viper.GetViper())
	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentlens.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.base-url", "")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.timeout", 30*time.Second)
	v.SetDefault("ai.openai.api-key", "")
	v.SetDefault("ai.openai.api-key-file", "")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.base-url", "")
	v.SetDefault("ai.openai.max-retries", 3)
	v.SetDefault("ai.openai.timeout", 30*time.Second)
	v.SetDefault("ai.rate-limit.rps", 0)
	v.SetDefault("ai.rate-limit.burst", 1)
	v.SetDefault("ai.max-log-length", 200)

	v.SetDefault("parser.provider", "llamaparse")
	v.SetDefault("parser.llamaparse.api-key", "")
	v.SetDefault("parser.llamaparse.api-key-file", "")
	v.SetDefault("parser.llamaparse.base-url", "")
	v.SetDefault("parser.llamaparse.poll-interval", time.Second)
	v.SetDefault("parser.llamaparse.timeout", 2*time.Minute)
	v.SetDefault("parser.plain-text-locally", true)

	v.SetDefault("normalizer.temperature", 0.3)
	v.SetDefault("normalizer.seed", 42)

	v.SetDefault("scoring.strategy", "llm")
	v.SetDefault("scoring.fallback", "")
	v.SetDefault("scoring.judge.temperature", 0.5)
	v.SetDefault("scoring.judge.seed", 0)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.max-file-size", 10<<20)
	v.SetDefault("storage.allowed-extensions", []string{"pdf", "doc", "docx", "txt"})
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access-key", "")
	v.SetDefault("storage.s3.secret-key", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.allowed-origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read-timeout", 30*time.Second)
	v.SetDefault("server.write-timeout", 120*time.Second)
	v.SetDefault("server.shutdown-timeout", 10*time.Second)
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		names := append([]string{key, prefixed}, aliases...)
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

func initConfig() {
	// .env is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	// We can't proceed if the config file parsed with error.
	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfig reads file, or talentlens.yaml from the working directory when
// file is empty. Only an explicitly named file has to exist.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(app)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.Storage.Backend == "s3" && strings.TrimSpace(config.Storage.S3.Bucket) == "" {
		return nil, errors.New("invalid config: storage.s3.bucket is required for the s3 backend")
	}

	return &config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}
