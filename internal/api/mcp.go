package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lunalink/lunalink/internal/prefs"
)

// NewMCPServer creates an MCP server exposing the settings bridge and
// host registry to desktop agents over stdio.
func NewMCPServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"lunalink",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("lunalink — stream settings and paired-host registry for the local streaming client."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_setting",
			mcp.WithDescription("Read one stream setting in its string form."),
			mcp.WithString("key", mcp.Description("Setting key, e.g. resolution, fps, bitrate"), mcp.Required()),
		),
		mcpGetSetting(deps),
	)

	s.AddTool(
		mcp.NewTool("set_setting",
			mcp.WithDescription("Update one stream setting. Enum settings take persistence tokens (e.g. 1080p, 60); an empty bitrate means automatic."),
			mcp.WithString("key", mcp.Description("Setting key"), mcp.Required()),
			mcp.WithString("value", mcp.Description("New value in string form"), mcp.Required()),
		),
		mcpSetSetting(deps),
	)

	s.AddTool(
		mcp.NewTool("export_settings",
			mcp.WithDescription("Render the full settings state as a portable JSON document."),
		),
		mcpExportSettings(deps),
	)

	s.AddTool(
		mcp.NewTool("list_hosts",
			mcp.WithDescription("List the paired remote hosts."),
		),
		mcpListHosts(deps),
	)

	return s
}

func mcpGetSetting(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		kind, ok := prefs.KindOf(key)
		if !ok {
			return mcpError(fmt.Sprintf("unknown setting %q (known: %v)", key, prefs.Keys())), nil
		}
		return mcpText(bridgeValue(deps.Bridge, key, kind)), nil
	}
}

func mcpSetSetting(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}

		kind, ok := prefs.KindOf(key)
		if !ok {
			return mcpError(fmt.Sprintf("unknown setting %q (known: %v)", key, prefs.Keys())), nil
		}

		if kind == "bool" {
			v, perr := strconv.ParseBool(value)
			if perr != nil {
				return mcpError(fmt.Sprintf("setting %q wants a bool, got %q", key, value)), nil
			}
			if err := deps.Bridge.PutBool(key, v); err != nil {
				return mcpError(fmt.Sprintf("failed to persist %s: %v", key, err)), nil
			}
		} else {
			if err := deps.Bridge.PutString(key, value); err != nil {
				return mcpError(fmt.Sprintf("failed to persist %s: %v", key, err)), nil
			}
		}

		return mcpText(fmt.Sprintf("%s = %s", key, bridgeValue(deps.Bridge, key, kind))), nil
	}
}

func mcpExportSettings(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := deps.Serializer.Export()
		if err != nil {
			return mcpError(fmt.Sprintf("export failed: %v", err)), nil
		}
		return mcpText(string(data)), nil
	}
}

func mcpListHosts(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		hosts, err := deps.Hosts.List()
		if err != nil {
			return mcpError(fmt.Sprintf("listing hosts failed: %v", err)), nil
		}
		if len(hosts) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(hosts)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal hosts: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
