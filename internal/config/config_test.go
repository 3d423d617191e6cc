package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("REDIRECT_TARGET_ID", "8:acs:target-user")
	os.Setenv("COMMUNICATION_SERVICES_CONNECTION_STRING", "endpoint=https://example.communication.azure.com/;accesskey=c2VjcmV0")
	defer os.Unsetenv("REDIRECT_TARGET_ID")
	defer os.Unsetenv("COMMUNICATION_SERVICES_CONNECTION_STRING")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Routing.RedirectTarget != "8:acs:target-user" {
		t.Fatalf("unexpected redirect target: %q", cfg.Routing.RedirectTarget)
	}
	if cfg.Routing.NativePrefix != "8:acs" {
		t.Fatalf("unexpected native prefix: %q", cfg.Routing.NativePrefix)
	}
	if cfg.Registry.FilePath == "" || cfg.Registry.LockTimeout <= 0 {
		t.Fatalf("unexpected registry defaults: %+v", cfg.Registry)
	}
}

func TestLoadConfigMissingRedirectTarget(t *testing.T) {
	os.Unsetenv("REDIRECT_TARGET_ID")
	os.Setenv("COMMUNICATION_SERVICES_CONNECTION_STRING", "endpoint=https://example.communication.azure.com/;accesskey=c2VjcmV0")
	defer os.Unsetenv("COMMUNICATION_SERVICES_CONNECTION_STRING")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when REDIRECT_TARGET_ID is unset")
	}
}

func TestConfigSummaryRedactsConnectionString(t *testing.T) {
	cfg := &Config{}
	cfg.ACS.ConnectionString = "endpoint=https://x/;accesskey=topsecret"
	s := cfg.Summary()
	if strings.Contains(s, "topsecret") {
		t.Fatalf("summary leaked connection string: %s", s)
	}
}
