package config

import (
    "os"
    "path/filepath"
    "testing"
)

func TestLoadDefaults(t *testing.T) {
    if err := os.Chdir(t.TempDir()); err != nil {
        t.Fatal(err)
    }
    cfg, err := Load()
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.Port != "8080" {
        t.Errorf("port = %q, want 8080", cfg.Port)
    }
    if cfg.Provider.TimeoutMS != 10000 || cfg.Provider.RateRPS != 5 {
        t.Errorf("provider defaults wrong: %+v", cfg.Provider)
    }
    if cfg.LivePollIntervalMS != 15000 {
        t.Errorf("poll interval = %d", cfg.LivePollIntervalMS)
    }
}

func TestLoadFileAndEnvOverride(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "config.yaml")
    body := "port: \"9090\"\nprovider:\n  baseUrl: https://provider.test\n  rateRps: 2\n"
    if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
        t.Fatal(err)
    }
    t.Setenv("CONFIG_FILE", path)
    t.Setenv("PROVIDER_RATE_RPS", "7")

    cfg, err := Load()
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.Port != "9090" {
        t.Errorf("port = %q, want 9090 from file", cfg.Port)
    }
    if cfg.Provider.BaseURL != "https://provider.test" {
        t.Errorf("baseUrl = %q", cfg.Provider.BaseURL)
    }
    if cfg.Provider.RateRPS != 7 {
        t.Errorf("rateRps = %d, env should win over file", cfg.Provider.RateRPS)
    }
}
