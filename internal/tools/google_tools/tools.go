package google_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/tools/common"
)

// RegisterGoogleTools registers the Google sign-in tools with the MCP server
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to connect Google Calendar"),
	)
	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("google_get_auth_url", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		}))

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google sign-in"),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)
	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("google_save_auth_code", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		}))

	signOutTool := mcp.NewTool("google_sign_out",
		mcp.WithDescription("Sign out of Google and forget the saved credential"),
	)
	s.AddTool(signOutTool, common.InstrumentedToolHandler("google_sign_out", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSignOut(ctx, request, sc)
		}))

	statusTool := mcp.NewTool("auth_status",
		mcp.WithDescription("Show the Google sign-in state, the storage backend and task progress"),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleStatus(ctx, request, sc)
		}))

	return nil
}

func handleGetAuthURL(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	authURL, err := sc.App().AuthURL(uuid.NewString())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot start Google sign-in: %v", err)), nil
	}

	result := fmt.Sprintf(`To connect Google Calendar:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to your calendar
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code to complete sign-in`, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	authCode := common.StringArg(request.GetArguments(), "authCode")
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	a := sc.App()
	err := a.SignIn(ctx, authCode)
	if !a.Session().IsAuthenticated() {
		return mcp.NewToolResultError(fmt.Sprintf("Google sign-in failed: %v", err)), nil
	}
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("✅ Signed in to Google, but the credential could not be saved: %v\nYou will need to sign in again after a restart.", err)), nil
	}
	return mcp.NewToolResultText("✅ Authorization successful! Tasks with a date and time are now added to Google Calendar."), nil
}

func handleSignOut(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if err := sc.App().SignOut(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to sign out: %v", err)), nil
	}
	return mcp.NewToolResultText("Signed out of Google."), nil
}

func handleStatus(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	st := sc.App().Status()

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", st.Session)
	if st.CalendarAvailable {
		fmt.Fprintf(&b, "Calendar: connected (%s)\n", st.CalendarID)
	} else {
		b.WriteString("Calendar: not connected\n")
	}
	fmt.Fprintf(&b, "Storage: %s\n", st.Backend)
	fmt.Fprintf(&b, "Tasks: %d of %d completed (%d%%)\n", st.Progress.Completed, st.Progress.Total, st.Progress.Percent)
	return mcp.NewToolResultText(b.String()), nil
}
