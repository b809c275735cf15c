package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lucidcomponents/lucid/internal/components"
	"github.com/lucidcomponents/lucid/internal/registry"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List registered components",
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	reg := registry.NewComponentRegistry()
	components.RegisterBuiltins(reg)

	titler := cases.Title(language.English)

	fmt.Printf("%d registered components:\n\n", reg.Count())
	for _, tag := range reg.Tags() {
		def, ok := reg.Get(tag)
		if !ok {
			continue
		}

		display := titler.String(strings.ReplaceAll(strings.TrimPrefix(tag, "lc-"), "-", " "))
		fmt.Printf("  <%s>  %s (%s render)\n", tag, display, def.Mode)
		if def.Description != "" {
			fmt.Printf("      %s\n", def.Description)
		}
		if len(def.ObservedAttributes) > 0 {
			fmt.Printf("      attributes: %s\n", strings.Join(def.ObservedAttributes, ", "))
		}
		if len(def.Templates) > 0 {
			fmt.Printf("      templates: %s\n", strings.Join(def.Templates, ", "))
		}
	}

	return nil
}
