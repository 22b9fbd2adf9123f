package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCmd prints build information.
func NewVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, versionView{BuildInfo: info, GoVersion: runtime.Version()})
		},
	}
}

type versionView struct {
	BuildInfo
	GoVersion string `json:"goVersion"`
}

func (v versionView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "simple %s\n  commit: %s\n  built:  %s\n  go:     %s\n", v.Version, v.Commit, v.BuildDate, v.GoVersion)
	return err
}
