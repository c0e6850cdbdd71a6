package systemd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"SwiftBackuper/internal/config"
)

func TestGenerate_ServiceAndTimer(t *testing.T) {
	job := config.JobConfig{
		Name:    "web-prod",
		Enabled: true,
		Schedule: &config.ScheduleConfig{
			Period:        "day",
			Times:         2,
			JitterMinutes: 5,
		},
	}
	opts := GeneratorOptions{
		Binary:        "/usr/local/bin/swiftbackuper",
		ConfigPath:    "/etc/swiftbackuper/config.yaml",
		WritablePaths: []string{"/var/tmp/backups", "/var/run/swiftbackuper", "/var/tmp/backups/"},
		Hardening:     true,
	}

	units, err := Generate(job, opts)
	if err != nil {
		t.Fatal(err)
	}
	if units.Name != "swiftbackuper-web-prod" {
		t.Errorf("Name = %q", units.Name)
	}

	for _, want := range []string{
		"[Unit]",
		"[Service]",
		"ExecStart=/usr/local/bin/swiftbackuper run --job web-prod",
		"Environment=SWIFTBACKUPER_CONFIG=/etc/swiftbackuper/config.yaml",
		"ProtectSystem=full",
		"ReadWritePaths=-/var/tmp/backups -/var/run/swiftbackuper\n",
	} {
		if !strings.Contains(units.Service, want) {
			t.Errorf("service missing %q:\n%s", want, units.Service)
		}
	}

	for _, want := range []string{
		"[Timer]",
		"OnCalendar=*-*-* 02:00:00\n",
		"OnCalendar=*-*-* 14:00:00\n",
		"RandomizedDelaySec=300",
		"Requires=swiftbackuper-web-prod.service",
		"daily 2x",
	} {
		if !strings.Contains(units.Timer, want) {
			t.Errorf("timer missing %q:\n%s", want, units.Timer)
		}
	}
}

func TestGenerate_NoHardening(t *testing.T) {
	job := config.JobConfig{Name: "x", Schedule: &config.ScheduleConfig{Period: "week", Times: 1}}
	units, err := Generate(job, GeneratorOptions{WritablePaths: []string{"/tmp"}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(units.Service, "ProtectSystem") || strings.Contains(units.Service, "ReadWritePaths") {
		t.Errorf("unexpected hardening:\n%s", units.Service)
	}
	if !strings.Contains(units.Service, "ExecStart="+DefaultBinary+" run --job x") {
		t.Errorf("default binary not used:\n%s", units.Service)
	}
	if !strings.Contains(units.Timer, "OnCalendar=Mon *-*-* 02:00:00") {
		t.Errorf("weekly calendar wrong:\n%s", units.Timer)
	}
	if strings.Contains(units.Timer, "RandomizedDelaySec") {
		t.Error("no jitter expected")
	}
}

func TestGenerate_NilSchedule_Error(t *testing.T) {
	_, err := Generate(config.JobConfig{Name: "x"}, GeneratorOptions{})
	if err == nil {
		t.Error("expected error for nil schedule")
	}
}

func TestSanitizeUnitName(t *testing.T) {
	tests := map[string]string{
		"web":         "web",
		"my site.com": "my-site-com",
		"a/b":         "ab",
		"%%":          "default",
	}
	for in, want := range tests {
		if got := sanitizeUnitName(in); got != want {
			t.Errorf("sanitizeUnitName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteRemoveInstalled(t *testing.T) {
	dir := t.TempDir()
	job := config.JobConfig{Name: "web", Schedule: &config.ScheduleConfig{Period: "day", Times: 1}}
	units, err := Generate(job, GeneratorOptions{})
	if err != nil {
		t.Fatal(err)
	}

	written, err := Write(dir, units)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 {
		t.Fatalf("written = %v", written)
	}
	data, err := os.ReadFile(filepath.Join(dir, "swiftbackuper-web.timer"))
	if err != nil || string(data) != units.Timer {
		t.Fatalf("timer file: %v", err)
	}

	installed, err := Installed(dir)
	if err != nil || len(installed) != 1 || installed[0] != "swiftbackuper-web" {
		t.Fatalf("Installed = %v, %v", installed, err)
	}

	removed, err := Remove(dir, "web")
	if err != nil || len(removed) != 2 {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	removed, err = Remove(dir, "web")
	if err != nil || len(removed) != 0 {
		t.Fatalf("second Remove = %v, %v", removed, err)
	}
}
