package cmd

import (
	"fmt"
	"log"

	"ThqRel/config"
	"ThqRel/core/auth"
	"ThqRel/db"
	"ThqRel/model"
	"ThqRel/repository"

	"github.com/spf13/cobra"
)

var (
	moderatorUsername string
	moderatorEmail    string
	moderatorPassword string
)

var moderatorCmd = &cobra.Command{
	Use:   "moderator",
	Short: "创建审核员账号",
	Long:  `注册接口只能创建艺人账号，审核员通过此命令离线创建。`,
	Run: func(cmd *cobra.Command, args []string) {
		if moderatorUsername == "" || moderatorEmail == "" || moderatorPassword == "" {
			log.Fatal("用户名、邮箱和密码都是必填项")
		}

		cfg := config.Load()
		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("无法连接数据库: %v", err)
		}
		defer db.CloseDB()

		if err := db.InitDB(); err != nil {
			log.Fatalf("初始化数据库失败: %v", err)
		}

		hash, err := auth.HashPassword(moderatorPassword)
		if err != nil {
			log.Fatalf("密码处理失败: %v", err)
		}

		userRepo := repository.NewMySQLUserRepository(db.DB)
		id, err := userRepo.CreateUser(&model.User{
			Username:     moderatorUsername,
			Email:        moderatorEmail,
			PasswordHash: hash,
			Role:         model.RoleModerator,
		})
		if err != nil {
			log.Fatalf("创建审核员失败: %v", err)
		}

		fmt.Printf("审核员账号已创建: %s (id=%d)\n", moderatorUsername, id)
	},
}

func init() {
	moderatorCmd.Flags().StringVarP(&moderatorUsername, "username", "u", "", "审核员用户名")
	moderatorCmd.Flags().StringVarP(&moderatorEmail, "email", "e", "", "审核员邮箱")
	moderatorCmd.Flags().StringVarP(&moderatorPassword, "password", "p", "", "审核员密码")
	rootCmd.AddCommand(moderatorCmd)
}
