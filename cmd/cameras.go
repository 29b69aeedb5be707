package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"emili/processing/capture"
)

var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "List camera devices usable as the webcam source",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := capture.ListCameras()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cameras found")
			return nil
		}
		for _, d := range devices {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(camerasCmd)
}
