// harvest-mcp bridges the harvest HTTP API to MCP clients over stdio.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeResponse mirrors the harvest API response model.
type scrapeResponse struct {
	Success      bool              `json:"success"`
	Records      []map[string]any  `json:"records"`
	SelectorUsed string            `json:"selector_used"`
	FinalURL     string            `json:"final_url"`
	EngineUsed   string            `json:"engine_used"`
	Error        *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// autoListResponse mirrors the harvest auto-list response model.
type autoListResponse struct {
	Success bool `json:"success"`
	Entries []struct {
		Selector string `json:"selector"`
		Text     string `json:"text"`
	} `json:"entries"`
	FinalURL string `json:"final_url"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("HARVEST_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("HARVEST_API_KEY")

	s := server.NewMCPServer(
		"harvest",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapePageTool := mcp.NewTool("scrape_page",
		mcp.WithDescription("Scrape repeated records (text lines + image URLs) from a web page. Without a selector, the page's repeated-item region is discovered automatically by layout sampling."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithString("selector",
			mcp.Description("CSS selector for the items to scrape. Omit to auto-discover the list region."),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("Fetch mode: 'auto' (default, race static fetch against the browser), 'browser', or 'static'"),
			mcp.Enum("auto", "browser", "static"),
		),
	)
	s.AddTool(scrapePageTool, handleScrapePage(apiURL, apiKey))

	scrapeSchemaTool := mcp.NewTool("scrape_schema",
		mcp.WithDescription("Extract structured records from a web page using labeled field selectors. Fields are grouped into one record per logical item."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithString("fields",
			mcp.Required(),
			mcp.Description(`JSON array of fields, e.g. [{"label":"title","selector":"h3.title","attribute":"innerText"},{"label":"image","selector":"img","attribute":"src"}]. Use "shadow":true and the ">>" delimiter to descend into open shadow roots.`),
		),
	)
	s.AddTool(scrapeSchemaTool, handleScrapeSchema(apiURL, apiKey))

	scrapeListTool := mcp.NewTool("scrape_list",
		mcp.WithDescription("Iterate a list-item selector on a web page and extract the given fields from each item, up to a limit."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithString("list_selector",
			mcp.Required(),
			mcp.Description("CSS selector for the list items (may use the '>>' shadow delimiter)"),
		),
		mcp.WithString("fields",
			mcp.Required(),
			mcp.Description(`JSON array of fields, e.g. [{"label":"name","selector":"span.name","attribute":"innerText"}]`),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of records to return (default: 10)"),
		),
	)
	s.AddTool(scrapeListTool, handleScrapeList(apiURL, apiKey))

	autoListTool := mcp.NewTool("auto_list",
		mcp.WithDescription("Inspect a list container on a web page: returns an ad-hoc selector and the text for every direct child. Useful for authoring field selectors before calling scrape_schema or scrape_list."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to inspect"),
		),
		mcp.WithString("selector",
			mcp.Required(),
			mcp.Description("CSS selector for the list container"),
		),
	)
	s.AddTool(autoListTool, handleAutoList(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the harvest API and returns the response
// body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// parseFields validates the fields argument as a JSON array.
func parseFields(fieldsStr string) (json.RawMessage, error) {
	var fields []map[string]any
	if err := json.Unmarshal([]byte(fieldsStr), &fields); err != nil {
		return nil, fmt.Errorf("fields must be a JSON array: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("fields must not be empty")
	}
	return json.RawMessage(fieldsStr), nil
}

// formatRecords renders a record list as readable text.
func formatRecords(resp *scrapeResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d records (engine: %s", len(resp.Records), resp.EngineUsed))
	if resp.SelectorUsed != "" {
		sb.WriteString(fmt.Sprintf(", selector: %s", resp.SelectorUsed))
	}
	sb.WriteString(")\n\n")

	pretty, err := json.MarshalIndent(resp.Records, "", "  ")
	if err != nil {
		return sb.String() + "failed to render records"
	}
	sb.Write(pretty)
	return sb.String()
}

func errorText(op string, e *struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}) string {
	if e == nil {
		return op + " failed"
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func handleScrapePage(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]any{"url": url}
		if selector := request.GetString("selector", ""); selector != "" {
			payload["selector"] = selector
		}
		if mode := request.GetString("fetch_mode", ""); mode != "" {
			payload["fetch_mode"] = mode
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var resp scrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("scrape", resp.Error)), nil
		}

		return mcp.NewToolResultText(formatRecords(&resp)), nil
	}
}

func handleScrapeSchema(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		fieldsStr, err := request.RequireString("fields")
		if err != nil {
			return mcp.NewToolResultError("fields is required"), nil
		}
		fields, err := parseFields(fieldsStr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload := map[string]any{"url": url, "fields": fields}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/schema", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("schema request failed: %v", err)), nil
		}

		var resp scrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("schema extraction", resp.Error)), nil
		}

		return mcp.NewToolResultText(formatRecords(&resp)), nil
	}
}

func handleScrapeList(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		listSelector, err := request.RequireString("list_selector")
		if err != nil {
			return mcp.NewToolResultError("list_selector is required"), nil
		}
		fieldsStr, err := request.RequireString("fields")
		if err != nil {
			return mcp.NewToolResultError("fields is required"), nil
		}
		fields, err := parseFields(fieldsStr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload := map[string]any{
			"url":           url,
			"list_selector": listSelector,
			"fields":        fields,
		}
		if limit := request.GetInt("limit", 0); limit > 0 {
			payload["limit"] = limit
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/list", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list request failed: %v", err)), nil
		}

		var resp scrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("list extraction", resp.Error)), nil
		}

		return mcp.NewToolResultText(formatRecords(&resp)), nil
	}
}

func handleAutoList(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		selector, err := request.RequireString("selector")
		if err != nil {
			return mcp.NewToolResultError("selector is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/autolist",
			map[string]any{"url": url, "selector": selector})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("autolist request failed: %v", err)), nil
		}

		var resp autoListResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("autolist", resp.Error)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d entries under %s:\n\n", len(resp.Entries), selector))
		for _, e := range resp.Entries {
			sb.WriteString(fmt.Sprintf("%s\n    %s\n", e.Selector, e.Text))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
