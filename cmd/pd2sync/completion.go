package main

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for pd2sync and write it to stdout.

Completion covers subcommands, event type lists for --include-types and
--exclude-types, --format values, overlay ids from the popups section of
the config file for --popup, and directories for --install-dir.

  pd2sync completion bash > /etc/bash_completion.d/pd2sync
  pd2sync completion zsh > "${fpath[1]}/_pd2sync"
  pd2sync completion fish > ~/.config/fish/completions/pd2sync.fish
  pd2sync completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Usage()
	}

	root, out := cmd.Root(), cmd.OutOrStdout()
	switch args[0] {
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(out)
	default:
		return root.GenBashCompletionV2(out, true)
	}
}

// completer is the signature cobra expects for flag completion.
type completer func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// registerCompletions attaches completers to whichever of the known flags
// cmd defines.
func registerCompletions(cmd *cobra.Command) {
	completers := map[string]completer{
		"include-types": completeEventTypes("include-types"),
		"exclude-types": completeEventTypes("exclude-types"),
		"format":        completeFormats,
		"popup":         completePopupIDs,
		"install-dir":   completeDirs,
	}
	for name, fn := range completers {
		if cmd.Flags().Lookup(name) != nil {
			_ = cmd.RegisterFlagCompletionFunc(name, fn)
		}
	}
}

// completeEventTypes completes a comma-separated event type list. Types
// already typed or already set on the flag are not offered again, and
// candidates carry the typed prefix so every shell replaces the whole word.
func completeEventTypes(flagName string) completer {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		typed := strings.Split(toComplete, ",")
		last := normalizeTypeInput(typed[len(typed)-1])
		typed = typed[:len(typed)-1]

		used := lo.Map(typed, func(v string, _ int) string { return normalizeTypeInput(v) })
		if vals, err := cmd.Flags().GetStringSlice(flagName); err == nil {
			used = append(used, lo.Map(vals, func(v string, _ int) string { return normalizeTypeInput(v) })...)
		}

		prefix := ""
		if len(typed) > 0 {
			prefix = strings.Join(typed, ",") + ","
		}

		var candidates []string
		for _, name := range lo.Without(ValidEventTypeNames(), used...) {
			if strings.HasPrefix(name, last) {
				candidates = append(candidates, prefix+name)
			}
		}
		return candidates, cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp
	}
}

// normalizeTypeInput lowercases v and accepts underscores for hyphens,
// matching event.ParseType.
func normalizeTypeInput(v string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), "_", "-")
}

func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := lo.Keys(ValidFormats)
	slices.Sort(formats)
	return lo.Filter(formats, func(f string, _ int) bool {
		return strings.HasPrefix(f, toComplete)
	}), cobra.ShellCompDirectiveNoFileComp
}

// completePopupIDs offers "id=" for every overlay id with popups in the
// config file. Coordinates are left to the user.
func completePopupIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ids := lo.Keys(cfg.Popups)
	slices.Sort(ids)

	var candidates []string
	for _, id := range ids {
		if strings.HasPrefix(id, toComplete) {
			candidates = append(candidates, id+"=")
		}
	}
	return candidates, cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp
}

func completeDirs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveFilterDirs
}
