// Package profile describes the remote portal surface the delisting engine
// drives: endpoint paths, the chat constants used by the support-bot
// conversation, and the free-text phrases that classify delisting results.
// The shipped defaults reproduce observed agentseller behavior; a local
// YAML file can override individual fields.
package profile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/delistd/configs"
)

type Profile struct {
	BaseURL   string    `yaml:"base_url"`
	Endpoints Endpoints `yaml:"endpoints"`
	Chat      Chat      `yaml:"chat"`
	Confirm   Confirm   `yaml:"confirm"`
	Polling   Polling   `yaml:"polling"`
}

type Endpoints struct {
	SendMessage        string `yaml:"send_message"`
	QueryMessage       string `yaml:"query_message"`
	SelfServiceTools   string `yaml:"self_service_tools"`
	ProductBasicInfo   string `yaml:"product_basic_info"`
	PreIntercept       string `yaml:"pre_intercept"`
	ComplianceEntrance string `yaml:"compliance_entrance"`
	ProductPage        string `yaml:"product_page"`
}

type Chat struct {
	TriggerText       string `yaml:"trigger_text"`
	ToolName          string `yaml:"tool_name"`
	BotSenderType     int    `yaml:"bot_sender_type"`
	CardContentType   int    `yaml:"card_content_type"`
	TextContentType   int    `yaml:"text_content_type"`
	SubmitContentType int    `yaml:"submit_content_type"`
	QueryDirection    int    `yaml:"query_direction"`
	QueryLimit        int    `yaml:"query_limit"`
}

// Phrase maps a substring of a support-bot result message to an outcome.
// Classification walks the list in order and the first match wins.
type Phrase struct {
	Contains  string `yaml:"contains"`
	Succeeded bool   `yaml:"succeeded"`
}

type Confirm struct {
	ResultMarker string   `yaml:"result_marker"`
	IDFormats    []string `yaml:"id_formats"`
	Phrases      []Phrase `yaml:"phrases"`
}

type Polling struct {
	DiscoveryAttempts int `yaml:"discovery_attempts"`
	ConfirmAttempts   int `yaml:"confirm_attempts"`
	IntervalMS        int `yaml:"interval_ms"`
	FinalQueryLimit   int `yaml:"final_query_limit"`
}

func (p Polling) Interval() time.Duration {
	return time.Duration(p.IntervalMS) * time.Millisecond
}

// Default returns the embedded profile.
func Default() (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(configs.PortalDefault, &p); err != nil {
		return nil, fmt.Errorf("failed to parse embedded portal profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("embedded portal profile is invalid: %w", err)
	}
	return &p, nil
}

// Load returns the embedded defaults overlaid with the YAML file at path.
// An empty path returns the defaults unchanged. Fields absent from the
// override keep their default values.
func Load(path string) (*Profile, error) {
	p, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portal profile %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse portal profile %q: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("portal profile %q is invalid: %w", path, err)
	}
	return p, nil
}

func (p *Profile) validate() error {
	if p.BaseURL == "" {
		return errors.New("base_url is required")
	}
	required := map[string]string{
		"endpoints.send_message":       p.Endpoints.SendMessage,
		"endpoints.query_message":      p.Endpoints.QueryMessage,
		"endpoints.self_service_tools": p.Endpoints.SelfServiceTools,
		"endpoints.product_basic_info": p.Endpoints.ProductBasicInfo,
		"endpoints.pre_intercept":      p.Endpoints.PreIntercept,
		"chat.trigger_text":            p.Chat.TriggerText,
		"chat.tool_name":               p.Chat.ToolName,
		"confirm.result_marker":        p.Confirm.ResultMarker,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if p.Polling.DiscoveryAttempts < 1 {
		return fmt.Errorf("polling.discovery_attempts must be at least 1, got %d", p.Polling.DiscoveryAttempts)
	}
	if p.Polling.ConfirmAttempts < 1 {
		return fmt.Errorf("polling.confirm_attempts must be at least 1, got %d", p.Polling.ConfirmAttempts)
	}
	if p.Polling.IntervalMS < 0 {
		return fmt.Errorf("polling.interval_ms must not be negative, got %d", p.Polling.IntervalMS)
	}
	if p.Chat.QueryLimit < 1 {
		return fmt.Errorf("chat.query_limit must be at least 1, got %d", p.Chat.QueryLimit)
	}
	if len(p.Confirm.IDFormats) == 0 {
		return errors.New("confirm.id_formats must not be empty")
	}
	if len(p.Confirm.Phrases) == 0 {
		return errors.New("confirm.phrases must not be empty")
	}
	for i, ph := range p.Confirm.Phrases {
		if ph.Contains == "" {
			return fmt.Errorf("confirm.phrases[%d].contains is empty", i)
		}
	}
	return nil
}
