package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskcal/internal/app"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/session"
	"github.com/teemow/taskcal/internal/storage"
	"github.com/teemow/taskcal/internal/task"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// Tools only need a server context to register; an in-memory app is enough
	ctx := context.Background()
	backend := storage.NewMemory()
	a := app.New(app.Options{
		Store:   task.NewStore(backend, task.DefaultStorageKey, nil),
		Session: session.New(backend, nil),
	})
	serverContext, err := server.NewServerContext(ctx, a)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown(ctx)
	}()

	mcpSrv := mcpserver.NewMCPServer("taskcal", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	markdown := generateToolsMarkdown(tools)

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// toolCategories orders the documentation sections by tool name prefix.
var toolCategories = []struct {
	prefixes []string
	title    string
}{
	{prefixes: []string{"todo"}, title: "Task Tools"},
	{prefixes: []string{"calendar"}, title: "Google Calendar Tools"},
	{prefixes: []string{"google", "auth"}, title: "Google Sign-In Tools"},
}

const otherCategory = "Other"

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools available when running `taskcal serve`. Generated from the tool definitions by `taskcal generate-docs`.\n\n")

	byCategory := groupToolsByCategory(tools)
	var titles []string
	for _, c := range toolCategories {
		if len(byCategory[c.title]) > 0 {
			titles = append(titles, c.title)
		}
	}
	if len(byCategory[otherCategory]) > 0 {
		titles = append(titles, otherCategory)
	}

	for _, title := range titles {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", title, strings.ToLower(strings.ReplaceAll(title, " ", "-")))
	}
	sb.WriteString("\n")

	sb.WriteString("Calendar tools and calendar sync need a Google session. Call `google_get_auth_url`, ")
	sb.WriteString("visit the URL and pass the code to `google_save_auth_code`. While signed in, `todo_add` ")
	sb.WriteString("creates a calendar event for every task with a date and a time. Tasks added while signed ")
	sb.WriteString("out are not synced later.\n\n")

	for _, title := range titles {
		category := byCategory[title]
		slices.SortFunc(category, func(a, b mcp.Tool) int {
			return strings.Compare(a.Name, b.Name)
		})

		fmt.Fprintf(&sb, "## %s\n\n", title)
		for _, tool := range category {
			sb.WriteString(generateToolMarkdown(tool))
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		title := getCategoryFromToolName(tool.Name)
		categories[title] = append(categories[title], tool)
	}
	return categories
}

func getCategoryFromToolName(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	for _, c := range toolCategories {
		if slices.Contains(c.prefixes, prefix) {
			return c.title
		}
	}
	return otherCategory
}

// generateToolMarkdown renders one tool with its arguments as a table.
func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### `%s`\n\n", tool.Name)
	if tool.Description != "" {
		sb.WriteString(tool.Description + "\n\n")
	}

	if len(tool.InputSchema.Properties) == 0 {
		sb.WriteString("No arguments.\n\n")
		return sb.String()
	}

	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	// required arguments first, then by name
	slices.SortFunc(names, func(a, b string) int {
		ra, rb := slices.Contains(tool.InputSchema.Required, a), slices.Contains(tool.InputSchema.Required, b)
		if ra != rb {
			if ra {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})

	sb.WriteString("| Argument | Type | Required | Description |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, name := range names {
		prop, ok := tool.InputSchema.Properties[name].(map[string]interface{})
		if !ok {
			continue
		}
		required := "no"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "yes"
		}
		desc, _ := prop["description"].(string)
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", name, getPropertyType(prop), required, strings.ReplaceAll(desc, "|", "\\|"))
	}
	sb.WriteString("\n")

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
