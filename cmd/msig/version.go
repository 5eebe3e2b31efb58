package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msig-dev/msig/internal/config"
	"github.com/msig-dev/msig/internal/errors"
	"github.com/msig-dev/msig/pkg/reactive"
)

// buildInfo is what `msig version` reports.
type buildInfo struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	Built     string   `json:"built"`
	GoVersion string   `json:"goVersion"`
	Platform  string   `json:"platform"`
	Defaults  defaults `json:"defaults"`
}

// defaults are the settings a runtime and server get without msig.json.
type defaults struct {
	ConfigFile  string `json:"configFile"`
	Address     string `json:"address"`
	CallTimeout string `json:"callTimeout"`
	MaxDepth    int    `json:"maxDepth"`
	MetricsPath string `json:"metricsPath"`
	ErrorCodes  int    `json:"errorCodes"`
}

func currentBuildInfo() buildInfo {
	cfg := config.New()
	return buildInfo{
		Version:   version,
		Commit:    commit,
		Built:     date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Defaults: defaults{
			ConfigFile:  config.ConfigFileName,
			Address:     cfg.Address(),
			CallTimeout: cfg.Server.CallTimeout,
			MaxDepth:    reactive.DefaultMaxDepth,
			MetricsPath: cfg.Metrics.Path,
			ErrorCodes:  len(errors.GetAllCodes()),
		},
	}
}

func writeVersion(w io.Writer, info buildInfo) {
	fmt.Fprintf(w, "  Version:    %s\n", info.Version)
	fmt.Fprintf(w, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(w, "  Built:      %s\n", info.Built)
	fmt.Fprintf(w, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "  OS/Arch:    %s\n", info.Platform)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Runtime defaults")
	fmt.Fprintf(w, "    Config file:      %s\n", info.Defaults.ConfigFile)
	fmt.Fprintf(w, "    Listen address:   %s\n", info.Defaults.Address)
	fmt.Fprintf(w, "    Call timeout:     %s\n", info.Defaults.CallTimeout)
	fmt.Fprintf(w, "    Max effect depth: %d\n", info.Defaults.MaxDepth)
	fmt.Fprintf(w, "    Metrics path:     %s\n", info.Defaults.MetricsPath)
	fmt.Fprintf(w, "    Error codes:      %d\n", info.Defaults.ErrorCodes)
}

func versionCmd() *cobra.Command {
	var (
		short  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and runtime defaults",
		Long: `Print version, commit, and build information for the msig CLI,
together with the defaults a runtime and server start with when no
msig.json is present.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			info := currentBuildInfo()
			switch {
			case short:
				fmt.Fprintln(out, info.Version)
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			default:
				printBanner()
				fmt.Println()
				writeVersion(out, info)
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information and defaults as JSON")

	return cmd
}
