package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/caseflow-dev/caseflow/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []SlackField `json:"fields"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	colorRed = 16711680 // #FF0000

	username = "CaseFlow"
)

// SendDefectNotification posts a failed execution to the Discord and/or Slack
// webhooks configured via DEFECT_WEBHOOK_DISCORD and DEFECT_WEBHOOK_SLACK.
// Unset URLs are skipped.
func SendDefectNotification(project models.Project, testCase models.TestCase, tester models.User, execution models.TestExecution) error {
	if url := os.Getenv("DEFECT_WEBHOOK_DISCORD"); url != "" {
		if err := sendDiscordDefect(url, project, testCase, tester, execution); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if url := os.Getenv("DEFECT_WEBHOOK_SLACK"); url != "" {
		if err := sendSlackDefect(url, project, testCase, tester, execution); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func sendDiscordDefect(webhookURL string, project models.Project, testCase models.TestCase, tester models.User, execution models.TestExecution) error {
	payload := DiscordWebhookRequest{
		Username: username,
		Embeds: []DiscordEmbed{
			{
				Title:       "Defect reported",
				Description: fmt.Sprintf("**%s** failed during run %d of %d.", testCase.Feature, execution.RunNumber, testCase.RequiredRuns),
				Color:       colorRed,
				Fields: []DiscordWebhookField{
					{Name: "Project", Value: project.Name, Inline: true},
					{Name: "Category", Value: testCase.Category, Inline: true},
					{Name: "Priority", Value: testCase.Priority, Inline: true},
					{Name: "Defect", Value: execution.Defect, Inline: false},
					{Name: "Tester", Value: tester.Name, Inline: true},
					{Name: "Executed At", Value: execution.ExecutedAt.UTC().Format("2006-01-02 15:04:05 UTC"), Inline: true},
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return postJSON(webhookURL, payload)
}

func sendSlackDefect(webhookURL string, project models.Project, testCase models.TestCase, tester models.User, execution models.TestExecution) error {
	payload := SlackWebhookRequest{
		Username:  username,
		IconEmoji: ":bug:",
		Text:      ":bug: *Defect reported*",
		Attachments: []SlackAttachment{
			{
				Color: "danger",
				Title: fmt.Sprintf("'%s' failed during run %d of %d", testCase.Feature, execution.RunNumber, testCase.RequiredRuns),
				Text:  execution.Defect,
				Fields: []SlackField{
					{Title: "Project", Value: project.Name, Short: true},
					{Title: "Category", Value: testCase.Category, Short: true},
					{Title: "Priority", Value: testCase.Priority, Short: true},
					{Title: "Tester", Value: tester.Name, Short: true},
				},
			},
		},
	}

	return postJSON(webhookURL, payload)
}

func postJSON(webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)

	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Post(webhookURL, "application/json", bytes.NewReader(body))

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
