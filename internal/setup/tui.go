package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/vadiminshakov/stockpair/config"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes the result to
// config.gen.yaml. It returns the generated file name.
func RunTUI() (string, error) {
	var (
		marketAPIKey string
		llmAPIURL    string
		llmAPIKey    string
		model        string
		listenAddr   string
		confirm      bool
	)

	// defaults
	llmAPIURL = "https://openrouter.ai/api/v1/chat/completions"
	model = "deepseek/deepseek-v3.2-exp"
	listenAddr = ":8080"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("STOCKPAIR CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Compare any two tickers with an AI analyst on top.\n"))

	// market data provider
	fmt.Println(stepStyle.Render("STEP 1: MARKET DATA"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Finnhub API Key").
				Description("Free tier works; get one at finnhub.io").
				Value(&marketAPIKey).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("API key cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// LLM collaborator
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("STOCKPAIR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: AI ANALYST"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("LLM API URL").
				Description("Any OpenAI-compatible chat completions endpoint").
				Value(&llmAPIURL),
			huh.NewInput().
				Title("LLM API Key").
				Value(&llmAPIKey).
				EchoMode(huh.EchoModePassword),
			huh.NewInput().
				Title("Model Name").
				Value(&model),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// dashboard
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("STOCKPAIR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: DASHBOARD"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Description("host:port for the dashboard (e.g. :8080)").
				Value(&listenAddr),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("STOCKPAIR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Market data: finnhub (key set)\nLLM: %s\nModel: %s\nDashboard: %s\n",
		llmAPIURL, model, listenAddr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}

	if !confirm {
		return "", fmt.Errorf("setup cancelled by user")
	}

	cfgTmp := config.ConfigTmp{
		ListenAddr:   listenAddr,
		MarketAPIKey: marketAPIKey,
		LLMAPIURL:    llmAPIURL,
		LLMAPIKey:    llmAPIKey,
		Model:        model,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return "", fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return "", fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting dashboard...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return filename, nil
}
