// Package builtin assembles the server's fixed capability surface: the
// greeting, BMI, and weather tools, the application config resource, the
// optional data-directory resources, and the code review prompt.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/contextd/mcp-stdio/internal/config"
	"github.com/contextd/mcp-stdio/mcp"
	"github.com/contextd/mcp-stdio/mcpservice"
	"github.com/contextd/mcp-stdio/sessions"
)

// dataBaseURI is the URI prefix under which data-directory files are exposed.
const dataBaseURI = "file:///data"

// NewServer builds the ServerCapabilities for the binary from its
// configuration. The returned DirResources is non-nil only when a data
// directory is configured; the caller decides whether to start its watcher.
func NewServer(cfg *config.Config, log *slog.Logger) (mcpservice.ServerCapabilities, *mcpservice.DirResources, error) {
	tools := mcpservice.NewToolsContainer(
		greetTool(),
		bmiTool(),
		weatherTool(),
	)

	resources := []mcpservice.ResourcesCapability{
		mcpservice.NewResourcesContainer(configResource(cfg)),
	}
	var dir *mcpservice.DirResources
	if cfg.DataDir != "" {
		d, err := mcpservice.NewDirResources(cfg.DataDir,
			mcpservice.WithDirBaseURI(dataBaseURI),
			mcpservice.WithDirTemplate("Data Files", "Files from the server's data directory"),
			mcpservice.WithDirLogger(log),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("data dir resources: %w", err)
		}
		dir = d
		resources = append(resources, d)
	}

	prompts := mcpservice.NewPromptsContainer(reviewCodePrompt())

	srv := mcpservice.NewServer(
		mcpservice.WithServerInfo(mcp.ImplementationInfo{
			Name:    cfg.ServerName,
			Version: cfg.ServerVersion,
		}),
		mcpservice.WithToolsCapability(tools),
		mcpservice.WithResourcesCapability(mcpservice.CombineResources(resources...)),
		mcpservice.WithPromptsCapability(prompts),
	)
	return srv, dir, nil
}

type greetArgs struct {
	Name string `json:"name" jsonschema:"description=The name of the person to greet"`
}

func greetTool() mcpservice.StaticTool {
	return mcpservice.NewTool("greet",
		func(ctx context.Context, _ sessions.Session, args greetArgs) (*mcp.CallToolResult, error) {
			return mcpservice.TextResult(fmt.Sprintf("Hello, %s! Welcome to MCP.", args.Name)), nil
		},
		mcpservice.WithToolDescription("Greets a person with a friendly message"),
	)
}

type bmiArgs struct {
	WeightKg float64 `json:"weightKg" jsonschema:"description=Weight in kilograms"`
	HeightM  float64 `json:"heightM" jsonschema:"description=Height in meters,minimum=0.1"`
}

func bmiTool() mcpservice.StaticTool {
	return mcpservice.NewTool("calculate-bmi",
		func(ctx context.Context, _ sessions.Session, args bmiArgs) (*mcp.CallToolResult, error) {
			// Non-positive height is a domain failure the model should see,
			// not a protocol error.
			if args.HeightM <= 0 {
				return mcpservice.Errorf("Height must be positive"), nil
			}
			bmi := args.WeightKg / (args.HeightM * args.HeightM)
			return mcpservice.TextResult(fmt.Sprintf("BMI: %.2f", bmi)), nil
		},
		mcpservice.WithToolDescription("Calculates Body Mass Index from weight and height"),
	)
}

type weatherArgs struct {
	City string `json:"city" jsonschema:"description=The city name"`
}

// weatherReport keys serialize in declaration order for stable output.
type weatherReport struct {
	City        string `json:"city"`
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
	Humidity    string `json:"humidity"`
	WindSpeed   string `json:"windSpeed"`
}

func weatherTool() mcpservice.StaticTool {
	return mcpservice.NewTool("fetch-weather",
		func(ctx context.Context, _ sessions.Session, args weatherArgs) (*mcp.CallToolResult, error) {
			// Simulated weather data; a real deployment would call out to a
			// weather API here.
			report := weatherReport{
				City:        args.City,
				Temperature: "72°F",
				Condition:   "Partly Cloudy",
				Humidity:    "65%",
				WindSpeed:   "10 mph",
			}
			pretty, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("encode weather report: %w", err)
			}
			return mcpservice.TextResult(fmt.Sprintf("Weather for %s:\n%s", args.City, pretty)), nil
		},
		mcpservice.WithToolDescription("Fetches weather information for a given city"),
	)
}

// appConfig mirrors the document served at config://app.
type appConfig struct {
	AppName     string `json:"appName"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Features    struct {
		Tools     bool `json:"tools"`
		Resources bool `json:"resources"`
		Prompts   bool `json:"prompts"`
	} `json:"features"`
}

func configResource(cfg *config.Config) mcpservice.StaticResource {
	doc := appConfig{
		AppName:     cfg.ServerName,
		Version:     cfg.ServerVersion,
		Environment: "development",
	}
	doc.Features.Tools = true
	doc.Features.Resources = true
	doc.Features.Prompts = true

	pretty, _ := json.MarshalIndent(doc, "", "  ")
	return mcpservice.TextResource(mcp.Resource{
		URI:         "config://app",
		Name:        "Application Configuration",
		Description: "Current application configuration",
		MimeType:    "application/json",
	}, string(pretty))
}

func reviewCodePrompt() mcpservice.StaticPrompt {
	return mcpservice.StaticPrompt{
		Descriptor: mcp.Prompt{
			Name:        "review-code",
			Description: "Generates a prompt to ask the LLM to review code",
			Arguments: []mcp.PromptArgument{
				{
					Name:        "code",
					Description: "The code snippet to review",
					Required:    true,
				},
				{
					Name:        "focus",
					Description: "Optional area of focus for the review (performance, security, style, general)",
				},
			},
		},
		Handler: func(ctx context.Context, _ sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error) {
			code := req.Arguments["code"]
			focus := req.Arguments["focus"]
			if focus == "" {
				focus = "general"
			}

			text := "Please review the following code for potential issues and suggest improvements"
			if focus != "general" {
				text += fmt.Sprintf(", focusing specifically on %s", focus)
			}
			text += fmt.Sprintf(":\n\n```\n%s\n```", code)

			return &mcp.GetPromptResult{
				Description: fmt.Sprintf("Requesting %s review for code snippet", focus),
				Messages: []mcp.PromptMessage{{
					Role:    mcp.RoleUser,
					Content: []mcp.ContentBlock{{Type: "text", Text: text}},
				}},
			}, nil
		},
	}
}
