// Command cron is the external scheduler for the audit archival job. The API
// deliberately runs no in-process scheduler; this binary (or any other
// scheduler, e.g. system cron) invokes the token-guarded archive endpoint.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultSchedule = "0 3 * * *" // daily at 03:00
	defaultAPI      = "http://localhost:8080"
	envSchedule     = "CRON_SCHEDULE"
	envAPIURL       = "CMS_API_URL"
	envToken        = "CRON_SECRET_TOKEN"
)

func main() {
	schedule := getEnv(envSchedule, defaultSchedule)
	apiBase := getEnv(envAPIURL, defaultAPI)
	token := os.Getenv(envToken)
	if token == "" {
		log.Fatalf("%s must be set", envToken)
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := triggerArchive(apiBase, token); err != nil {
			log.Printf("archive trigger failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("invalid schedule %q: %v", schedule, err)
	}

	log.Printf("cron runner started (schedule=%q api=%s)", schedule, apiBase)
	c.Run()
}

// triggerArchive calls the archive endpoint and logs the relocated count.
func triggerArchive(apiBase, token string) error {
	endpoint := fmt.Sprintf("%s/api/cron/archive-audit-logs?token=%s", apiBase, url.QueryEscape(token))

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("archive endpoint returned %d", resp.StatusCode)
	}

	var out struct {
		Success       bool  `json:"success"`
		ArchivedCount int64 `json:"archivedCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	log.Printf("archive run complete: archived=%d", out.ArchivedCount)
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
