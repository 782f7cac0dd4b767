package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/migrations"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Schema    string `json:"schema"`
	GoVersion string `json:"go_version"`
}

// CurrentVersion returns the build and schema level of this binary.
func CurrentVersion() VersionInfo {
	schema, err := migrations.Latest(database.DriverSQLite)
	if err != nil {
		schema = "unknown"
	}
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		Schema:    schema,
		GoVersion: runtime.Version(),
	}
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and schema level",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := CurrentVersion()
		out := cmd.OutOrStdout()
		if versionJSON {
			return PrintJSON(out, info)
		}
		fmt.Fprintf(out, "cyclist %s\n", info.Version)
		fmt.Fprintf(out, "  commit: %s\n", info.Commit)
		fmt.Fprintf(out, "  built:  %s\n", info.BuildDate)
		fmt.Fprintf(out, "  schema: %s\n", info.Schema)
		fmt.Fprintf(out, "  go:     %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(versionCmd)
}
