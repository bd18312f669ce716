package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("docchat version %s (%s %s/%s)\n",
			version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if rev := vcsRevision(); rev != "" {
			cmd.Printf("revision %s\n", rev)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// vcsRevision returns the short commit hash embedded by the toolchain,
// or empty when the binary was built outside a checkout.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
