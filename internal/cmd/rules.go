package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/duplication"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/license"
)

var rulesFormat string
var rulesOutput string
var rulesProfile string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List all detection rules",
	Long: `List every rule the scanner can apply, with its category and whether
the selected profile enables it.`,
	Run: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	setupOutputFlags(rulesCmd, &rulesFormat, &rulesOutput)
	rulesCmd.Flags().StringVarP(&rulesProfile, "profile", "p", "default", "Profile whose rule selection to show")
}

// RuleInfo describes one rule as the selected profile sees it
type RuleInfo struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Enabled  bool   `json:"enabled"`
	Blocking bool   `json:"blocking"`
}

// RulesResult is the output for the rules command
type RulesResult struct {
	Profile string     `json:"profile"`
	Rules   []RuleInfo `json:"rules"`
}

func (r *RulesResult) ToJSON() interface{} {
	return r
}

func (r *RulesResult) ToText(w io.Writer) {
	for _, rule := range r.Rules {
		state := "enabled"
		if !rule.Enabled {
			state = "disabled"
		}
		if rule.Blocking && rule.Enabled {
			state += ", blocking"
		}
		fmt.Fprintf(w, "%-26s %-12s %s\n", rule.ID, rule.Category, state)
	}
	fmt.Fprintf(w, "\nTotal: %d rules (profile %s)\n", len(r.Rules), r.Profile)
}

func runRules(cmd *cobra.Command, args []string) {
	profile, err := config.LoadProfile(rulesProfile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var rules []RuleInfo
	for _, d := range detect.All() {
		rules = append(rules, ruleInfo(profile, d.ID(), d.Category()))
	}

	// Rules that run outside the per-file detector stage
	rules = append(rules,
		ruleInfo(profile, duplication.RuleDuplicateCode, findings.CategoryCoupling),
		ruleInfo(profile, license.RuleMissingLicense, findings.CategoryRegulatory),
	)
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	result := &RulesResult{Profile: profile.Name, Rules: rules}
	OutputToFile(result, rulesFormat, rulesOutput)
}

func ruleInfo(profile *config.Profile, id string, category findings.Category) RuleInfo {
	return RuleInfo{
		ID:       id,
		Category: string(category),
		Enabled:  profile.RuleEnabled(id),
		Blocking: profile.Blocking(category),
	}
}
