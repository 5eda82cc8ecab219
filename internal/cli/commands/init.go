package commands

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conduit-lang/marvelous/internal/cli/ui"
	"github.com/conduit-lang/marvelous/internal/config"
)

const defaultConfigFile = "marvelous.yaml"

type initOptions struct {
	publicKey  string
	privateKey string
	baseURL    string
	logFormat  string
	noDiscover bool
	force      bool
}

// initAnswers collects the prompted settings
type initAnswers struct {
	PublicKey  string
	PrivateKey string
	BaseURL    string
	LogFormat  string
	Discovery  bool
}

func newInitCommand(root *rootOptions) *cobra.Command {
	o := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a marvelous.yaml config file",
		Long: `Write a config file with your API keys. Without --public-key and
--private-key the settings are asked for interactively.`,
		Example: `  marvelous init
  marvelous init --public-key 1234 --private-key abcd --config ~/.config/marvelous/marvelous.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, root, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.publicKey, "public-key", "", "API public key")
	f.StringVar(&o.privateKey, "private-key", "", "API private key")
	f.StringVar(&o.baseURL, "base-url", config.DefaultBaseURL, "API base URL")
	f.StringVar(&o.logFormat, "log-format", "console", "log format (console, json)")
	f.BoolVar(&o.noDiscover, "no-discover", false, "disable auto-discovery by default")
	f.BoolVar(&o.force, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, root *rootOptions, o *initOptions) error {
	path := root.configPath
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil && !o.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	answers := initAnswers{
		PublicKey:  o.publicKey,
		PrivateKey: o.privateKey,
		BaseURL:    o.baseURL,
		LogFormat:  o.logFormat,
		Discovery:  !o.noDiscover,
	}
	if o.publicKey == "" || o.privateKey == "" {
		if err := askInit(&answers); err != nil {
			return err
		}
	}

	v := viper.New()
	v.SetConfigPermissions(0o600)
	v.Set("api.base_url", answers.BaseURL)
	v.Set("api.public_key", answers.PublicKey)
	v.Set("api.private_key", answers.PrivateKey)
	v.Set("discovery.enabled", answers.Discovery)
	v.Set("log.level", "info")
	v.Set("log.format", answers.LogFormat)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	// reject what Load would reject before reporting success
	if _, err := config.Load(path); err != nil {
		return &configError{err: err}
	}

	out := cmd.OutOrStdout()
	ui.WriteSuccess(out, "Wrote "+path, root.noColor)
	fmt.Fprintf(out, "\nNext: %s\n", color.CyanString("marvelous query comics -p limit=5"))
	return nil
}

func askInit(answers *initAnswers) error {
	questions := []*survey.Question{
		{
			Name:     "publicKey",
			Prompt:   &survey.Input{Message: "Public key:", Default: answers.PublicKey},
			Validate: survey.Required,
		},
		{
			Name:     "privateKey",
			Prompt:   &survey.Password{Message: "Private key:"},
			Validate: survey.Required,
		},
		{
			Name:   "baseURL",
			Prompt: &survey.Input{Message: "API base URL:", Default: answers.BaseURL},
		},
		{
			Name: "logFormat",
			Prompt: &survey.Select{
				Message: "Log format:",
				Options: []string{"console", "json"},
				Default: answers.LogFormat,
			},
		},
		{
			Name: "discovery",
			Prompt: &survey.Confirm{
				Message: "Annotate results with discovered resources?",
				Default: answers.Discovery,
				Help:    "Can be turned off per command with --no-discover",
			},
		},
	}
	return survey.Ask(questions, answers)
}
