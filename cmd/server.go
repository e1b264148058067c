package cmd

import (
	"ThqRel/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动ThqRel服务器",
	Long:  `启动发行平台的HTTP服务器，提供艺人自助与审核面板的API服务`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
