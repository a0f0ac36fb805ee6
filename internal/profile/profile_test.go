package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultProfile(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	if p.BaseURL != "https://agentseller.temu.com" {
		t.Errorf("BaseURL = %q", p.BaseURL)
	}
	if p.Chat.TriggerText != "商品下架" || p.Chat.ToolName != "商品下架" {
		t.Errorf("chat trigger/tool = %q/%q, want 商品下架", p.Chat.TriggerText, p.Chat.ToolName)
	}
	if p.Chat.BotSenderType != 1001 {
		t.Errorf("BotSenderType = %d, want 1001", p.Chat.BotSenderType)
	}
	if p.Chat.CardContentType != 6 || p.Chat.TextContentType != 1 || p.Chat.SubmitContentType != 7 {
		t.Errorf("content types = %d/%d/%d, want 6/1/7",
			p.Chat.CardContentType, p.Chat.TextContentType, p.Chat.SubmitContentType)
	}
	if p.Chat.QueryDirection != 2 || p.Chat.QueryLimit != 20 {
		t.Errorf("query direction/limit = %d/%d, want 2/20", p.Chat.QueryDirection, p.Chat.QueryLimit)
	}

	if p.Polling.DiscoveryAttempts != 5 || p.Polling.ConfirmAttempts != 10 {
		t.Errorf("attempts = %d/%d, want 5/10", p.Polling.DiscoveryAttempts, p.Polling.ConfirmAttempts)
	}
	if p.Polling.FinalQueryLimit != 50 {
		t.Errorf("FinalQueryLimit = %d, want 50", p.Polling.FinalQueryLimit)
	}
	if p.Polling.Interval() != time.Second {
		t.Errorf("Interval() = %v, want 1s", p.Polling.Interval())
	}

	if p.Confirm.ResultMarker != "您好" {
		t.Errorf("ResultMarker = %q, want 您好", p.Confirm.ResultMarker)
	}
	if len(p.Confirm.IDFormats) == 0 {
		t.Fatal("IDFormats is empty")
	}

	// Classification walks phrases in order; the success phrases must come
	// before the failure ones so mixed texts resolve deterministically.
	wantPhrases := []struct {
		contains  string
		succeeded bool
	}{
		{"已下架", true},
		{"已在您的上次咨询后处理成功", true},
		{"暂时无法操作下架", false},
	}
	if len(p.Confirm.Phrases) != len(wantPhrases) {
		t.Fatalf("len(Phrases) = %d, want %d", len(p.Confirm.Phrases), len(wantPhrases))
	}
	for i, want := range wantPhrases {
		got := p.Confirm.Phrases[i]
		if got.Contains != want.contains || got.Succeeded != want.succeeded {
			t.Errorf("Phrases[%d] = %+v, want {%s %v}", i, got, want.contains, want.succeeded)
		}
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	override := `
base_url: https://staging.example.com
polling:
  interval_ms: 50
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.BaseURL != "https://staging.example.com" {
		t.Errorf("BaseURL = %q, want override", p.BaseURL)
	}
	if p.Polling.IntervalMS != 50 {
		t.Errorf("IntervalMS = %d, want 50", p.Polling.IntervalMS)
	}

	// Untouched fields keep their defaults.
	if p.Chat.TriggerText != "商品下架" {
		t.Errorf("TriggerText = %q, want default preserved", p.Chat.TriggerText)
	}
	if p.Polling.ConfirmAttempts != 10 {
		t.Errorf("ConfirmAttempts = %d, want default preserved", p.Polling.ConfirmAttempts)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	def, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if p.BaseURL != def.BaseURL {
		t.Errorf("Load(\"\") BaseURL = %q, want %q", p.BaseURL, def.BaseURL)
	}
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty base url", "base_url: \"\""},
		{"zero confirm attempts", "polling:\n  confirm_attempts: 0"},
		{"negative interval", "polling:\n  interval_ms: -5"},
		{"not yaml", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "portal.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("write override: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() accepted an invalid override")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with a missing file did not return an error")
	}
}
