package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
)

var profileFormat string

var profileCmd = &cobra.Command{
	Use:   "profile [name-or-path]",
	Short: "Show a resolved compliance profile",
	Long: `Display a compliance profile after resolution: the built-in defaults
overlaid with the named built-in profile or a profile file. This is the
exact configuration a scan with --profile would apply.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	setupFormatFlag(profileCmd, &profileFormat)
}

// ProfileResult wraps a resolved profile for output
type ProfileResult struct {
	Profile *config.Profile
}

func (r *ProfileResult) ToJSON() interface{} {
	return r.Profile
}

func (r *ProfileResult) ToText(w io.Writer) {
	// For text, use YAML as it's more readable
	data, err := yaml.Marshal(r.Profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal profile: %v\n", err)
		os.Exit(2)
	}
	fmt.Fprint(w, string(data))
}

func runProfile(cmd *cobra.Command, args []string) {
	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	profile, err := config.LoadProfile(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	Output(&ProfileResult{Profile: profile}, profileFormat)
}
