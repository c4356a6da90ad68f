package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"buddy/src/config"
	"buddy/src/personality"
)

// personasCmd lists persona templates
var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List persona templates and their trait vectors",
	Long: `List the persona templates available to buddies.

Built-in templates can be overridden, and new ones added, by placing
<name>.toml files in the personas directory under the config dir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.GetPersonasDir()
		if err != nil {
			dir = ""
		}
		catalog := personality.NewCatalog(dir)

		for _, name := range catalog.Names() {
			tc, err := catalog.Lookup(name)
			if err != nil {
				fmt.Printf("%-14s (invalid: %v)\n", name, err)
				continue
			}
			fmt.Printf("%-14s %-32s %s\n", name, tc.Vector().String(), tc.Metadata.Description)
		}
		if dir != "" {
			fmt.Printf("\nCustom templates: %s\n", dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}
