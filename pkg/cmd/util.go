package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GetFlag gets an expected boolean flag, or exits if it's missing.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string flag, or exits if it's missing.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetCount gets an expected count flag (e.g. repeated -v), or exits if it's
// missing.
func GetCount(cmd *cobra.Command, flag string) int {
	r, err := cmd.Flags().GetCount(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}
