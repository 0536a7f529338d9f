package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		user, err := env.session.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}

		name := strings.TrimSpace(user.FirstName + " " + user.LastName)
		if name != "" {
			fmt.Printf("%s (%s)\n", user.Email, name)
		} else {
			fmt.Println(user.Email)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
