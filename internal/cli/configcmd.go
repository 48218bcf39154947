package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write engine configuration keys",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a configuration key",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a configuration key",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	value, err := eng.GetConfig(context.Background(), args[0], "")
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.SetConfig(context.Background(), args[0], args[1]); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
