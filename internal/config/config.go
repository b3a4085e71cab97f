package config

import (
	"errors"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"log"
	"os"
	"sync"
)

// ListenPort is fixed; only the bind address can be changed.
const ListenPort = "3000"

const (
	ModePrivate = "private"
	ModeGraph   = "graph"

	ProviderDialogflow = "dialogflow"
	ProviderOpenAI     = "openai"
)

type Config struct {
	Env       string `yaml:"env" env:"ENV" env-default:"local"`
	Instagram struct {
		Mode        string `yaml:"mode" env:"INSTAGRAM_MODE" env-default:"private"`
		Username    string `yaml:"username" env:"USERNAME" env-default:""`
		Password    string `yaml:"password" env:"PASSWORD" env-default:""`
		BaseURL     string `yaml:"base_url" env:"INSTAGRAM_BASE_URL" env-default:"https://i.instagram.com"`
		AccessToken string `yaml:"access_token" env:"INSTAGRAM_ACCESS_TOKEN" env-default:""`
		GraphURL    string `yaml:"graph_url" env:"INSTAGRAM_GRAPH_URL" env-default:"https://graph.instagram.com/v24.0"`
		VerifyToken string `yaml:"verify_token" env:"INSTAGRAM_VERIFY_TOKEN" env-default:""`
		AppSecret   string `yaml:"app_secret" env:"INSTAGRAM_APP_SECRET" env-default:""`
	} `yaml:"instagram"`
	NLU struct {
		Provider string `yaml:"provider" env:"NLU_PROVIDER" env-default:"dialogflow"`
	} `yaml:"nlu"`
	Dialogflow struct {
		ProjectID       string `yaml:"project_id" env:"PROJECT_ID" env-default:""`
		LanguageCode    string `yaml:"language_code" env:"DIALOGFLOW_LANGUAGE" env-default:"en"`
		CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS" env-default:""`
		Endpoint        string `yaml:"endpoint" env:"DIALOGFLOW_ENDPOINT" env-default:""`
	} `yaml:"dialogflow"`
	OpenAI struct {
		ApiKey       string `yaml:"api_key" env:"OPENAI_API_KEY" env-default:""`
		Model        string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
		SystemPrompt string `yaml:"system_prompt" env:"OPENAI_SYSTEM_PROMPT" env-default:""`
		BaseURL      string `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:""`
	} `yaml:"openai"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"instaflow"`
	} `yaml:"mongo"`
	Telegram struct {
		Enabled bool   `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId int64  `yaml:"admin_id" env:"TELEGRAM_ADMIN_ID" env-default:"0"`
		BotName string `yaml:"bot_name" env:"TELEGRAM_BOT_NAME" env-default:"InstaFlowBot"`
	} `yaml:"telegram"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"false"`
		BindIP  string `yaml:"bind_ip" env:"METRICS_BIND_IP" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env:"METRICS_PORT" env-default:"9102"`
	} `yaml:"metrics"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

// MustLoad reads the config once per process and exits on failure.
func MustLoad(path string) *Config {
	once.Do(func() {
		conf, err := Load(path)
		if err != nil {
			desc, _ := cleanenv.GetDescription(&Config{}, nil)
			log.Fatal(fmt.Errorf("%s; %s", err, desc))
		}
		instance = conf
	})
	return instance
}

// Load reads .env (if any), then the YAML file at path (if it exists), then
// the environment, which always wins.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	conf := &Config{}
	if _, err := os.Stat(path); path != "" && err == nil {
		if err = cleanenv.ReadConfig(path, conf); err != nil {
			return nil, err
		}
	} else {
		if err = cleanenv.ReadEnv(conf); err != nil {
			return nil, err
		}
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	switch c.Instagram.Mode {
	case ModePrivate, ModeGraph:
	default:
		return fmt.Errorf("unknown instagram mode %q", c.Instagram.Mode)
	}
	switch c.NLU.Provider {
	case ProviderDialogflow, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown nlu provider %q", c.NLU.Provider)
	}
	return nil
}

func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%s", c.Listen.BindIP, ListenPort)
}
