package builtin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/contextd/mcp-stdio/internal/config"
	"github.com/contextd/mcp-stdio/mcp"
	"github.com/contextd/mcp-stdio/mcpservice"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerName:    "mcp-stdio",
		ServerVersion: "1.0.0",
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func capabilities(t *testing.T, cfg *config.Config) (mcpservice.ToolsCapability, mcpservice.ResourcesCapability, mcpservice.PromptsCapability) {
	t.Helper()
	srv, _, err := NewServer(cfg, discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx := context.Background()
	tools, ok, err := srv.GetToolsCapability(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("tools capability: ok=%v err=%v", ok, err)
	}
	resources, ok, err := srv.GetResourcesCapability(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("resources capability: ok=%v err=%v", ok, err)
	}
	prompts, ok, err := srv.GetPromptsCapability(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("prompts capability: ok=%v err=%v", ok, err)
	}
	return tools, resources, prompts
}

func callTool(t *testing.T, tools mcpservice.ToolsCapability, name string, args any) *mcp.CallToolResult {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	res, err := tools.CallTool(context.Background(), nil, &mcp.CallToolRequestReceived{
		Name:      name,
		Arguments: raw,
	})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return res
}

func TestBuiltinToolListing(t *testing.T) {
	tools, _, _ := capabilities(t, testConfig())

	list, err := tools.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make([]string, len(list))
	for i, tl := range list {
		names[i] = tl.Name
	}
	want := []string{"greet", "calculate-bmi", "fetch-weather"}
	if len(names) != len(want) {
		t.Fatalf("tools = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("tools = %v, want %v", names, want)
		}
	}
}

func TestGreetTool(t *testing.T) {
	tools, _, _ := capabilities(t, testConfig())

	res := callTool(t, tools, "greet", map[string]any{"name": "Ada"})
	if res.IsError {
		t.Fatalf("greet failed: %+v", res)
	}
	if res.Content[0].Text != "Hello, Ada! Welcome to MCP." {
		t.Fatalf("greet text = %q", res.Content[0].Text)
	}
}

func TestBMITool(t *testing.T) {
	tools, _, _ := capabilities(t, testConfig())

	res := callTool(t, tools, "calculate-bmi", map[string]any{"weightKg": 70.0, "heightM": 1.75})
	if res.IsError {
		t.Fatalf("bmi failed: %+v", res)
	}
	if res.Content[0].Text != "BMI: 22.86" {
		t.Fatalf("bmi text = %q", res.Content[0].Text)
	}

	res = callTool(t, tools, "calculate-bmi", map[string]any{"weightKg": 70.0, "heightM": 0.0})
	if !res.IsError {
		t.Fatalf("non-positive height accepted: %+v", res)
	}
	if res.Content[0].Text != "Height must be positive" {
		t.Fatalf("error text = %q", res.Content[0].Text)
	}
}

func TestWeatherTool(t *testing.T) {
	tools, _, _ := capabilities(t, testConfig())

	res := callTool(t, tools, "fetch-weather", map[string]any{"city": "Lisbon"})
	if res.IsError {
		t.Fatalf("weather failed: %+v", res)
	}
	text := res.Content[0].Text
	if !strings.HasPrefix(text, "Weather for Lisbon:\n") {
		t.Fatalf("weather text = %q", text)
	}

	var report struct {
		City        string `json:"city"`
		Temperature string `json:"temperature"`
		Condition   string `json:"condition"`
		Humidity    string `json:"humidity"`
		WindSpeed   string `json:"windSpeed"`
	}
	body := strings.TrimPrefix(text, "Weather for Lisbon:\n")
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.City != "Lisbon" || report.Temperature != "72°F" || report.Condition != "Partly Cloudy" {
		t.Fatalf("report = %+v", report)
	}
	if report.Humidity != "65%" || report.WindSpeed != "10 mph" {
		t.Fatalf("report = %+v", report)
	}
}

func TestConfigResource(t *testing.T) {
	_, resources, _ := capabilities(t, testConfig())

	list, err := resources.ListResources(context.Background(), nil)
	if err != nil {
		t.Fatalf("list resources: %v", err)
	}
	if len(list) != 1 || list[0].URI != "config://app" {
		t.Fatalf("resources = %+v", list)
	}
	if list[0].MimeType != "application/json" {
		t.Fatalf("mime type = %q", list[0].MimeType)
	}

	contents, err := resources.ReadResource(context.Background(), nil, "config://app")
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var doc struct {
		AppName     string `json:"appName"`
		Version     string `json:"version"`
		Environment string `json:"environment"`
		Features    struct {
			Tools     bool `json:"tools"`
			Resources bool `json:"resources"`
			Prompts   bool `json:"prompts"`
		} `json:"features"`
	}
	if err := json.Unmarshal([]byte(contents[0].Text), &doc); err != nil {
		t.Fatalf("decode config doc: %v", err)
	}
	if doc.AppName != "mcp-stdio" || doc.Version != "1.0.0" || doc.Environment != "development" {
		t.Fatalf("doc = %+v", doc)
	}
	if !doc.Features.Tools || !doc.Features.Resources || !doc.Features.Prompts {
		t.Fatalf("features = %+v", doc.Features)
	}
}

func TestDataDirResources(t *testing.T) {
	cfg := testConfig()
	cfg.DataDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "readme.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv, dir, err := NewServer(cfg, discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if dir == nil {
		t.Fatalf("dir resources not constructed")
	}

	resources, ok, err := srv.GetResourcesCapability(context.Background(), nil)
	if err != nil || !ok {
		t.Fatalf("resources capability: ok=%v err=%v", ok, err)
	}
	list, err := resources.ListResources(context.Background(), nil)
	if err != nil {
		t.Fatalf("list resources: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("resources = %+v", list)
	}
	if list[0].URI != "config://app" || list[1].URI != "file:///data/readme.txt" {
		t.Fatalf("resources = %+v", list)
	}

	contents, err := resources.ReadResource(context.Background(), nil, "file:///data/readme.txt")
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	if contents[0].Text != "hi" {
		t.Fatalf("contents = %+v", contents)
	}

	templates, err := resources.ListResourceTemplates(context.Background(), nil)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(templates) != 1 || templates[0].URITemplate != "file:///data/{filename}" {
		t.Fatalf("templates = %+v", templates)
	}
	if templates[0].Name != "Data Files" {
		t.Fatalf("template name = %q", templates[0].Name)
	}
}

func TestReviewCodePrompt(t *testing.T) {
	_, _, prompts := capabilities(t, testConfig())

	list, err := prompts.ListPrompts(context.Background(), nil)
	if err != nil {
		t.Fatalf("list prompts: %v", err)
	}
	if len(list) != 1 || list[0].Name != "review-code" {
		t.Fatalf("prompts = %+v", list)
	}
	if len(list[0].Arguments) != 2 || !list[0].Arguments[0].Required || list[0].Arguments[1].Required {
		t.Fatalf("arguments = %+v", list[0].Arguments)
	}

	res, err := prompts.GetPrompt(context.Background(), nil, &mcp.GetPromptRequestReceived{
		Name:      "review-code",
		Arguments: map[string]string{"code": "func main() {}"},
	})
	if err != nil {
		t.Fatalf("get prompt: %v", err)
	}
	if res.Description != "Requesting general review for code snippet" {
		t.Fatalf("description = %q", res.Description)
	}
	text := res.Messages[0].Content[0].Text
	if strings.Contains(text, "focusing specifically") {
		t.Fatalf("default focus added a focus clause: %q", text)
	}
	if !strings.Contains(text, "```\nfunc main() {}\n```") {
		t.Fatalf("code not embedded: %q", text)
	}
	if res.Messages[0].Role != mcp.RoleUser {
		t.Fatalf("role = %q", res.Messages[0].Role)
	}
}

func TestReviewCodePrompt_Focus(t *testing.T) {
	_, _, prompts := capabilities(t, testConfig())

	res, err := prompts.GetPrompt(context.Background(), nil, &mcp.GetPromptRequestReceived{
		Name:      "review-code",
		Arguments: map[string]string{"code": "x", "focus": "security"},
	})
	if err != nil {
		t.Fatalf("get prompt: %v", err)
	}
	if res.Description != "Requesting security review for code snippet" {
		t.Fatalf("description = %q", res.Description)
	}
	if !strings.Contains(res.Messages[0].Content[0].Text, "focusing specifically on security") {
		t.Fatalf("focus clause missing: %q", res.Messages[0].Content[0].Text)
	}
}
