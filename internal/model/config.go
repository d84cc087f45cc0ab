package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// defaultKeywords is the stock placement-domain keyword list for the
// heuristic classifier. It is configuration, not logic: deployments
// override it wholesale via the classifier.keywords key.
var defaultKeywords = []string{
	"shortlist", "short-listed", "shortlisted", "assessment", "aptitude",
	"technical interview", "hr interview", "drive", "placement", "schedule",
	"round", "selection process", "online test", "coding test", "recruitment",
	"interview slot", "virtual interview",
}

// ClassifierConfig controls the placement gate.
type ClassifierConfig struct {
	// Keywords is the placement-domain phrase list for the heuristic path.
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`

	// SenderWhitelist lists addresses or domains that bypass all
	// content inspection.
	SenderWhitelist []string `mapstructure:"sender_whitelist" yaml:"sender_whitelist"`
}

// AIConfig holds settings for the inference collaborator. An empty API
// key is a normal configuration state: the collaborator then reports
// itself unavailable and the pipeline uses its documented fallbacks.
type AIConfig struct {
	Model      string `mapstructure:"model" yaml:"model"`
	MaxTokens  int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// IMAPConfig holds the IMAP mail source settings. The password comes
// from the system keyring unless set here for headless runs.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// MailConfig selects and configures the mail source adapter.
type MailConfig struct {
	// Source is "gmail" or "imap".
	Source string `mapstructure:"source" yaml:"source"`

	// CredentialsFile and TokenFile are the Gmail OAuth client secret
	// and cached token paths.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	TokenFile       string `mapstructure:"token_file" yaml:"token_file"`

	IMAP IMAPConfig `mapstructure:"imap" yaml:"imap"`
}

// CalendarConfig configures the calendar sink.
type CalendarConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	TokenFile       string `mapstructure:"token_file" yaml:"token_file"`
	CalendarID      string `mapstructure:"calendar_id" yaml:"calendar_id"`
}

// WatchConfig controls the polling loop.
type WatchConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// Timezone is the single fixed zone all extracted event times use.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Profile    Profile          `mapstructure:"profile" yaml:"profile"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	AI         AIConfig         `mapstructure:"ai" yaml:"ai"`
	Mail       MailConfig       `mapstructure:"mail" yaml:"mail"`
	Calendar   CalendarConfig   `mapstructure:"calendar" yaml:"calendar"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch"`
	DBPath     string           `mapstructure:"db_path" yaml:"db_path"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/shortlist/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "shortlist", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, _ := os.UserHomeDir()
	return &AppConfig{
		Classifier: ClassifierConfig{
			Keywords: append([]string(nil), defaultKeywords...),
		},
		AI: AIConfig{
			Model:      "claude-sonnet-4-20250514",
			MaxTokens:  256,
			TimeoutSec: 20,
		},
		Mail: MailConfig{
			Source:          "gmail",
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			IMAP:            IMAPConfig{Port: "993", TLS: true},
		},
		Calendar: CalendarConfig{
			Enabled:         true,
			CredentialsFile: "credentials.json",
			TokenFile:       "calendar_token.json",
			CalendarID:      "primary",
		},
		Watch: WatchConfig{
			PollIntervalSec: 30,
			Timezone:        "Asia/Kolkata",
		},
		DBPath: filepath.Join(home, ".config", "shortlist", "shortlist.db"),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns the default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("classifier.keywords", def.Classifier.Keywords)
	v.SetDefault("ai.model", def.AI.Model)
	v.SetDefault("ai.max_tokens", def.AI.MaxTokens)
	v.SetDefault("ai.timeout_sec", def.AI.TimeoutSec)
	v.SetDefault("mail.source", def.Mail.Source)
	v.SetDefault("mail.credentials_file", def.Mail.CredentialsFile)
	v.SetDefault("mail.token_file", def.Mail.TokenFile)
	v.SetDefault("mail.imap.port", def.Mail.IMAP.Port)
	v.SetDefault("mail.imap.tls", def.Mail.IMAP.TLS)
	v.SetDefault("calendar.enabled", def.Calendar.Enabled)
	v.SetDefault("calendar.credentials_file", def.Calendar.CredentialsFile)
	v.SetDefault("calendar.token_file", def.Calendar.TokenFile)
	v.SetDefault("calendar.calendar_id", def.Calendar.CalendarID)
	v.SetDefault("watch.poll_interval_sec", def.Watch.PollIntervalSec)
	v.SetDefault("watch.timezone", def.Watch.Timezone)
	v.SetDefault("db_path", def.DBPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("profile", cfg.Profile)
	v.Set("classifier", cfg.Classifier)
	v.Set("ai", cfg.AI)
	v.Set("mail", cfg.Mail)
	v.Set("calendar", cfg.Calendar)
	v.Set("watch", cfg.Watch)
	v.Set("db_path", cfg.DBPath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
