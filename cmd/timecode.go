package cmd

import (
	"fmt"
	"strconv"

	"github.com/spatialbench/annotator/timecode"
	"github.com/spf13/cobra"
)

var timecodeCmd = &cobra.Command{
	Use:   "timecode",
	Short: "Convert between MM:SS.ss clock values and seconds",
}

var parseCmd = &cobra.Command{
	Use:   "parse <MM:SS.ss>...",
	Short: "Print the seconds each clock value represents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, text := range args {
			sec, err := timecode.Parse(text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", strconv.FormatFloat(sec, 'f', -1, 64), timecode.Format(sec))
		}
		return nil
	},
}

var formatCmd = &cobra.Command{
	Use:   "format <seconds>...",
	Short: "Print each number of seconds as MM:SS.ss",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			sec, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("%q is not a number of seconds", arg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), timecode.Format(sec))
		}
		return nil
	},
}

func init() {
	timecodeCmd.AddCommand(parseCmd)
	timecodeCmd.AddCommand(formatCmd)
}
