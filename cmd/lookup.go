package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/bindb/bindb"
	"github.com/s0up4200/bindb/rules"
)

var (
	errNotFound = errors.New("no record found")
	errNoMatch  = errors.New("record does not match rule")

	matchExpr  string
	rulePreset string

	ruleCompiler = rules.NewCompiler(rules.WithCache(32))
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:     "lookup <bin>",
	Aliases: []string{"search", "get"},
	Short:   "Look up a BIN",
	Long: `Look up a BIN and print its record.

With --match or --rule the record is also checked against a rule expression,
for example:

  bindb lookup 437776 --match 'vendorIn("VISA") and not is_prepaid'

Exit status is 2 when the BIN is not found and 3 when the rule does not match.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

// rawCmd represents the raw command
var rawCmd = &cobra.Command{
	Use:   "raw <bin>",
	Short: "Print the unparsed JSON response for a BIN",
	Args:  cobra.ExactArgs(1),
	RunE:  runRaw,
}

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <statement> [bin]",
	Short: "Run a BinDBQL statement",
	Long: `Run a BinDBQL statement of the form

  SELECT <* | field[, field...]> FROM bins WHERE bin = <bin | ?>

A "?" placeholder is bound to the second argument.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(rawCmd)
	rootCmd.AddCommand(queryCmd)

	for _, c := range []*cobra.Command{lookupCmd, queryCmd} {
		c.Flags().StringVarP(&matchExpr, "match", "m", "", "rule expression the record must satisfy")
		c.Flags().StringVarP(&rulePreset, "rule", "r", "", "use a named rule from config")
	}
}

func runLookup(cmd *cobra.Command, args []string) error {
	rule, err := resolveRule()
	if err != nil {
		return err
	}

	rec, err := bindbClient.Lookup(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	return report(cmd, args[0], rec, rule)
}

func runRaw(cmd *cobra.Command, args []string) error {
	body, err := bindbClient.RawLookup(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	// Report syntax errors even when error mode is off
	parsed, err := bindb.ParseQuery(args[0])
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	rule, err := resolveRule()
	if err != nil {
		return err
	}

	params := make([]any, 0, len(args)-1)
	for _, arg := range args[1:] {
		params = append(params, arg)
	}

	logger.Debug().Str("query", parsed.String()).Int("params", len(params)).Msg("Running BinDBQL query")

	rec, err := runStatement(cmd.Context(), bindbClient, args[0], params)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	bin := parsed.Bin.Value
	if parsed.Bin.Placeholder && len(params) > 0 {
		bin = fmt.Sprint(params[0])
	}
	return report(cmd, bin, rec, rule)
}

func runStatement(ctx context.Context, client *bindb.Client, statement string, params []any) (*bindb.Record, error) {
	return client.Query(statement).Run(ctx, params...)
}

// resolveRule determines the rule to check records against, if any
func resolveRule() (*rules.Rule, error) {
	expression := matchExpr
	if expression == "" && rulePreset != "" {
		preset, ok := cfg.Rules[rulePreset]
		if !ok {
			return nil, fmt.Errorf("rule '%s' not found in config", rulePreset)
		}
		expression = preset
	}
	if expression == "" {
		return nil, nil
	}

	rule, err := ruleCompiler.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid rule: %w", err)
	}
	return rule, nil
}

// report prints a record and applies the rule
func report(cmd *cobra.Command, bin string, rec *bindb.Record, rule *rules.Rule) error {
	if rec == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "No record found for BIN %s\n", bin)
		return errNotFound
	}

	if err := printRecord(cmd.OutOrStdout(), rec, cfg.Output.Format); err != nil {
		return err
	}

	if rule == nil {
		return nil
	}

	ok, err := rule.Match(rec)
	if err != nil {
		return err
	}

	logger.Info().
		Str("bin", bin).
		Str("rule", rule.Expression()).
		Bool("match", ok).
		Msg("Rule evaluated")

	if !ok {
		return errNoMatch
	}
	return nil
}
