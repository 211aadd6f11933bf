package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/canc"
)

var (
	rulesSnapshot string
	rulesLimit    int
	rulesLabel    string
	rulesVerbose  bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules of a saved snapshot",
	Long: `List the rules of a saved snapshot, heaviest first.`,
	Example: `  canc rules --limit 10
  canc rules --label yes --verbose`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesSnapshot, "snapshot", "", "Snapshot ID (default: latest)")
	rulesCmd.Flags().IntVarP(&rulesLimit, "limit", "n", 20, "Maximum rules to show (0 for all)")
	rulesCmd.Flags().StringVar(&rulesLabel, "label", "", "Only rules concluding this label")
	rulesCmd.Flags().BoolVarP(&rulesVerbose, "verbose", "v", false, "Print each rule with all its measures")
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	model, _, err := loadSnapshot(cmd, s, rulesSnapshot)
	if err != nil {
		return err
	}
	rules := selectRules(model.Rules, rulesLabel, rulesLimit)

	if outputJSON {
		return outputAsJSON(cmd, rules)
	}

	out := cmd.OutOrStdout()
	if len(rules) == 0 {
		fmt.Fprintln(out, "No rules.")
		return nil
	}
	if rulesVerbose {
		for i := range rules {
			fmt.Fprintln(out, rules[i].String())
		}
		return nil
	}

	rows := make([][]string, len(rules))
	for i, r := range rules {
		conds := make([]string, len(r.Conditions))
		for j, c := range r.Conditions {
			conds[j] = c.String()
		}
		rows[i] = []string{
			strings.Join(conds, " AND "),
			r.Label,
			fmt.Sprintf("%.4f", r.Weight),
			fmt.Sprintf("%.4f", r.Confidence),
			fmt.Sprintf("%.4f", r.Support),
		}
	}
	fmt.Fprint(out, renderTable([]string{"CONDITIONS", "LABEL", "WEIGHT", "CONFIDENCE", "SUPPORT"}, rows))
	printMuted(out, "%d of %d rules", len(rules), len(model.Rules))
	return nil
}

// selectRules filters rules by label and returns the heaviest limit of them.
func selectRules(rules []canc.Rule, label string, limit int) []canc.Rule {
	out := make([]canc.Rule, 0, len(rules))
	for _, r := range rules {
		if label == "" || r.Label == label {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
