package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"gopkg.in/yaml.v3"
)

type versionCmd struct {
	Format string `default:"text" enum:"text,json" help:"Output format." short:"F"`
}

// versionInfo holds version information
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// versionsYAML represents the versions.yaml file structure
type versionsYAML struct {
	Project struct {
		Version string `yaml:"version"`
	} `yaml:"project"`
	Git struct {
		Commit string `yaml:"commit"`
	} `yaml:"git"`
	Build struct {
		Time      string `yaml:"time"`
		GoVersion string `yaml:"go_version"`
	} `yaml:"build"`
}

// Run executes the version command.
func (v *versionCmd) Run(env *env) error {
	info := getVersionInfo()

	if v.Format == OutputFormatJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return newExitError(ExitCodeError, ErrMsgWriteOutputFailed, err)
		}
		fmt.Fprintln(env.stdout, string(data))
		return nil
	}

	fmt.Fprintf(env.stdout, VersionTextTemplate+FmtNewline,
		info.Version, info.Commit, info.BuildTime, info.GoVersion)
	return nil
}

// getVersionInfo reads build info embedded by the toolchain, then lets a
// versions.yaml in the working directory or its parents override it.
func getVersionInfo() *versionInfo {
	info := &versionInfo{
		Version:   VersionUnknown,
		Commit:    VersionUnknown,
		BuildTime: VersionUnknown,
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = s.Value
			case "vcs.time":
				info.BuildTime = s.Value
			}
		}
	}

	for _, path := range []string{VersionsFile, "../" + VersionsFile, "../../" + VersionsFile} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var vy versionsYAML
		if err := yaml.Unmarshal(data, &vy); err != nil {
			continue
		}

		if vy.Project.Version != "" {
			info.Version = vy.Project.Version
		}
		if vy.Git.Commit != "" {
			info.Commit = vy.Git.Commit
		}
		if vy.Build.Time != "" {
			info.BuildTime = vy.Build.Time
		}
		if vy.Build.GoVersion != "" {
			info.GoVersion = vy.Build.GoVersion
		}
		break
	}

	return info
}
