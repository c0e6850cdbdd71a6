package systemd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"SwiftBackuper/internal/config"
	"SwiftBackuper/internal/schedule"
)

const (
	DefaultUnitDir = "/etc/systemd/system"
	DefaultBinary  = "/usr/local/bin/swiftbackuper"
	UnitPrefix     = "swiftbackuper-"
)

type GeneratorOptions struct {
	Binary     string
	ConfigPath string
	// WritablePaths are added to ReadWritePaths when Hardening is set.
	WritablePaths []string
	Hardening     bool
}

type GeneratedUnits struct {
	Name    string
	Service string
	Timer   string
}

func UnitName(jobName string) string {
	return UnitPrefix + sanitizeUnitName(jobName)
}

func Generate(job config.JobConfig, opts GeneratorOptions) (*GeneratedUnits, error) {
	if job.Schedule == nil {
		return nil, fmt.Errorf("job %q has no schedule", job.Name)
	}
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.DefaultConfigPath()
	}

	name := UnitName(job.Name)
	execStart := fmt.Sprintf("%s run --job %s", opts.Binary, job.Name)

	return &GeneratedUnits{
		Name:    name,
		Service: buildService(job.Name, execStart, opts),
		Timer:   buildTimer(job.Name, name, job.Schedule),
	}, nil
}

func buildService(jobName, execStart string, opts GeneratorOptions) string {
	var b strings.Builder

	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=SwiftBackuper backup for job %s\n", jobName)
	b.WriteString("After=network-online.target\n")
	b.WriteString("Wants=network-online.target\n\n")

	b.WriteString("[Service]\n")
	b.WriteString("Type=oneshot\n")
	fmt.Fprintf(&b, "ExecStart=%s\n", execStart)
	fmt.Fprintf(&b, "Environment=%s=%s\n", config.EnvConfigPath, opts.ConfigPath)

	if opts.Hardening {
		b.WriteString("ProtectSystem=full\n")
		b.WriteString("ProtectHome=read-only\n")
		b.WriteString("NoNewPrivileges=yes\n")
		b.WriteString("ProtectKernelTunables=yes\n")
		b.WriteString("ProtectKernelModules=yes\n")
		b.WriteString("ProtectControlGroups=yes\n")
		b.WriteString("RestrictRealtime=yes\n")
		b.WriteString("RestrictSUIDSGID=yes\n")
		b.WriteString("LockPersonality=yes\n")
		b.WriteString("ProtectClock=yes\n")
		b.WriteString("ProtectHostname=yes\n")
		b.WriteString("ProtectKernelLogs=yes\n")
		b.WriteString("RestrictAddressFamilies=AF_UNIX AF_INET AF_INET6\n")
		if paths := writablePaths(opts.WritablePaths); len(paths) > 0 {
			fmt.Fprintf(&b, "ReadWritePaths=%s\n", strings.Join(paths, " "))
		}
	}

	b.WriteString("\n[Install]\n")
	b.WriteString("WantedBy=multi-user.target\n")
	return b.String()
}

func writablePaths(paths []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		// A leading "-" keeps the unit starting when the path does not exist yet.
		out = append(out, "-"+p)
	}
	return out
}

func buildTimer(jobName, unitName string, s *config.ScheduleConfig) string {
	var b strings.Builder

	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=SwiftBackuper timer for job %s (%s)\n", jobName, schedule.Describe(s))
	fmt.Fprintf(&b, "Requires=%s.service\n\n", unitName)

	b.WriteString("[Timer]\n")
	for _, c := range schedule.OnCalendar(s) {
		b.WriteString("OnCalendar=" + c + "\n")
	}
	if s.JitterMinutes > 0 {
		fmt.Fprintf(&b, "RandomizedDelaySec=%d\n", s.JitterMinutes*60)
	}
	b.WriteString("Persistent=yes\n\n")

	b.WriteString("[Install]\n")
	b.WriteString("WantedBy=timers.target\n")
	return b.String()
}

func sanitizeUnitName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else if r == ' ' || r == '.' {
			b.WriteRune('-')
		}
	}
	s := b.String()
	if s == "" {
		return "default"
	}
	return s
}

// Write stores the units in dir and returns the file paths written.
func Write(dir string, units *GeneratedUnits) ([]string, error) {
	if dir == "" {
		dir = DefaultUnitDir
	}
	files := []struct {
		name, body string
	}{
		{units.Name + ".service", units.Service},
		{units.Name + ".timer", units.Timer},
	}
	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.body), 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Remove deletes the units for jobName from dir. Missing files are ignored.
func Remove(dir, jobName string) ([]string, error) {
	if dir == "" {
		dir = DefaultUnitDir
	}
	name := UnitName(jobName)
	var removed []string
	for _, ext := range []string{".timer", ".service"} {
		path := filepath.Join(dir, name+ext)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// Installed lists job unit names found in dir.
func Installed(dir string) ([]string, error) {
	if dir == "" {
		dir = DefaultUnitDir
	}
	matches, err := filepath.Glob(filepath.Join(dir, UnitPrefix+"*.timer"))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(m), ".timer"))
	}
	return out, nil
}
