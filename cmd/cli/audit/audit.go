package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yefosr/cms-backend/cmd/cli/config"
	"github.com/yefosr/cms-backend/cmd/cli/output"
)

// InitAudit registers the audit command group on the root command.
func InitAudit(rootCmd *cobra.Command) {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
	}

	auditCmd.AddCommand(listCmd(), exportCmd(), retentionCmd(), archiveCmd())
	rootCmd.AddCommand(auditCmd)
}

// filterFlags are the query filters shared by list and export.
type filterFlags struct {
	adminID      string
	resourceType string
	action       string
	startDate    string
	endDate      string
	search       string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.adminID, "admin-id", "", "Filter by admin id")
	cmd.Flags().StringVar(&f.resourceType, "resource-type", "", "Filter by resource type (e.g. program, event)")
	cmd.Flags().StringVar(&f.action, "action", "", "Filter by action (e.g. create, update, delete)")
	cmd.Flags().StringVar(&f.startDate, "start-date", "", "Start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "End date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&f.search, "search", "", "Substring search over resource id and payloads")
}

func (f *filterFlags) values() url.Values {
	q := url.Values{}
	set := func(key, val string) {
		if val != "" {
			q.Set(key, val)
		}
	}
	set("adminId", f.adminID)
	set("resourceType", f.resourceType)
	set("action", f.action)
	set("startDate", f.startDate)
	set("endDate", f.endDate)
	set("search", f.search)
	return q
}

func listCmd() *cobra.Command {
	var filters filterFlags
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := filters.values()
			q.Set("page", strconv.Itoa(page))
			q.Set("pageSize", strconv.Itoa(pageSize))

			body, err := apiGet("/api/admin/audit-logs?" + q.Encode())
			if err != nil {
				return err
			}

			var out struct {
				Count int `json:"count"`
				Logs  []struct {
					CreatedAt    string `json:"created_at"`
					AdminName    string `json:"admin_name"`
					Action       string `json:"action"`
					ResourceType string `json:"resource_type"`
					ResourceID   string `json:"resource_id"`
					IPAddress    string `json:"ip_address"`
					Client       string `json:"client"`
				} `json:"logs"`
			}
			if err := json.Unmarshal(body, &out); err != nil {
				return err
			}

			if len(out.Logs) == 0 {
				fmt.Println("No audit logs found")
				return nil
			}

			rows := make([][]interface{}, 0, len(out.Logs))
			for _, l := range out.Logs {
				name := l.AdminName
				if name == "" {
					name = "system"
				}
				rows = append(rows, []interface{}{
					l.CreatedAt, name, l.Action, l.ResourceType, l.ResourceID, l.IPAddress, l.Client,
				})
			}
			output.RenderTable(
				[]string{"Timestamp", "Admin", "Action", "Resource", "ID", "IP", "Client"},
				rows,
			)
			fmt.Printf("Total matching: %d\n", out.Count)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Page size")
	return cmd
}

func exportCmd() *cobra.Command {
	var filters filterFlags
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export audit log entries as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet("/api/admin/audit-logs/export?" + filters.values().Encode())
			if err != nil {
				return err
			}

			if outFile == "" {
				os.Stdout.Write(body)
				return nil
			}
			if err := os.WriteFile(outFile, body, 0644); err != nil {
				return err
			}
			fmt.Printf("Wrote %d bytes to %s\n", len(body), outFile)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write CSV to file instead of stdout")
	return cmd
}

func retentionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Show or change the audit retention horizon",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the current retention in days",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiGet("/api/admin/settings/audit-retention")
			if err != nil {
				return err
			}
			var out struct {
				Days int `json:"days"`
			}
			if err := json.Unmarshal(body, &out); err != nil {
				return err
			}
			fmt.Printf("Audit retention: %d days\n", out.Days)
			return nil
		},
	}

	var days int
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set the retention in days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be >= 1")
			}
			body, err := apiPost("/api/admin/settings/audit-retention",
				map[string]int{"days": days})
			if err != nil {
				return err
			}
			_ = body
			fmt.Printf("Audit retention set to %d days\n", days)
			return nil
		},
	}
	setCmd.Flags().IntVar(&days, "days", 0, "Retention horizon in days (>= 1)")

	cmd.AddCommand(getCmd, setCmd)
	return cmd
}

func archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Run the retention job now",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiPost("/api/admin/trigger-archive", nil)
			if err != nil {
				return err
			}
			var out struct {
				ArchivedCount int64 `json:"archivedCount"`
			}
			if err := json.Unmarshal(body, &out); err != nil {
				return err
			}
			fmt.Printf("Archived %d audit records\n", out.ArchivedCount)
			return nil
		},
	}
}

// apiGet performs an authenticated GET and returns the response body.
func apiGet(path string) ([]byte, error) {
	return apiDo(http.MethodGet, path, nil)
}

// apiPost performs an authenticated POST with a JSON body.
func apiPost(path string, payload interface{}) ([]byte, error) {
	return apiDo(http.MethodPost, path, payload)
}

func apiDo(method, path string, payload interface{}) ([]byte, error) {
	token, err := config.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("not logged in, run: cms login")
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
