package main

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	sectionStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	commandStyle = lipgloss.NewStyle().Foreground(colorPrimaryLight)
)

// styled renders s with st on a terminal and leaves it plain otherwise.
func styled(st lipgloss.Style) func(string) string {
	return func(s string) string {
		if isTTY() {
			return st.Render(s)
		}
		return s
	}
}

// envUsage lists the environment variable behind each bound flag, in the
// layout pflag uses for flag usages.
func envUsage() string {
	width := 0
	for _, b := range envBindings {
		width = max(width, len(b.env))
	}
	var sb strings.Builder
	for _, b := range envBindings {
		fmt.Fprintf(&sb, "  %-*s  --%s\n", width, b.env, b.flag)
	}
	fmt.Fprintf(&sb, "  %-*s  --config", width, "CANC_CONFIG")
	return sb.String()
}

var helpFuncs = template.FuncMap{
	"section":  styled(sectionStyle),
	"command":  styled(commandStyle),
	"muted":    styled(mutedStyle),
	"envUsage": envUsage,
}

const helpTemplate = `{{with .Long}}{{. | trimTrailingWhitespaces}}{{else}}{{.Short}}{{end}}

{{if or .Runnable .HasSubCommands}}{{section "Usage:"}}
{{if .Runnable}}  {{command .UseLine}}
{{end}}{{if .HasAvailableSubCommands}}  {{command .CommandPath}} {{muted "[command]"}}
{{end}}
{{end}}{{if gt (len .Aliases) 0}}{{section "Aliases:"}}
  {{.NameAndAliases}}

{{end}}{{if .HasExample}}{{section "Examples:"}}
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}{{section "Commands:"}}
{{range .Commands}}{{if .IsAvailableCommand}}  {{command (rpad .Name .NamePadding)}} {{.Short}}
{{end}}{{end}}
{{end}}{{if .HasAvailableLocalFlags}}{{section "Flags:"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}{{section "Global Flags:"}}
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if not .HasParent}}{{section "Environment:"}}
{{envUsage}}

{{end}}{{if .HasAvailableSubCommands}}{{muted "Use"}} {{command (printf "%s [command] --help" .CommandPath)}} {{muted "for more information."}}
{{end}}`

// initHelp installs the help template on cmd and every subcommand. Call it
// once all commands are registered.
func initHelp(cmd *cobra.Command) {
	for name, fn := range helpFuncs {
		cobra.AddTemplateFunc(name, fn)
	}
	setHelp(cmd)
}

func setHelp(cmd *cobra.Command) {
	cmd.SetHelpTemplate(helpTemplate)
	for _, sub := range cmd.Commands() {
		setHelp(sub)
	}
}
