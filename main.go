package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vaiolabs/vaio-board/config"
	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/web"
	"github.com/vaiolabs/vaio-board/web/service"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
	defer logger.CloseLogger()

	err := database.InitDB(config.GetDBPath())
	if err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()

	server := web.NewServer()
	err = server.Start()
	if err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			err := server.Stop()
			if err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			err = server.Start()
			if err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func showSetting() {
	err := database.InitDB(config.GetDBPath())
	if err != nil {
		fmt.Println(err)
		return
	}

	userService := service.UserService{}
	users, err := userService.GetUsers()
	if err != nil {
		fmt.Println("get users failed:", err)
		return
	}

	fmt.Println("current panel settings as follows:")
	fmt.Println("listen:", config.GetListen())
	fmt.Println("port:", config.GetPort())
	fmt.Println("db:", config.GetDBPath())
	fmt.Println("log folder:", config.GetLogFolder())
	fmt.Println("supervisor conf:", config.GetSupervisorConfPath())
	for _, user := range users {
		fmt.Printf("user: %s (%s)\n", user.Username, user.Role)
	}
}

func setAdmin(name, username, password string) {
	err := database.InitDB(config.GetDBPath())
	if err != nil {
		fmt.Println(err)
		return
	}

	userService := service.UserService{}
	user, err := userService.CreateAdmin(name, username, password)
	if err != nil {
		fmt.Println("create admin failed:", err)
		return
	}
	fmt.Println("admin created:", user.Username)
}

func migrateDb() {
	err := database.InitDB(config.GetDBPath())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Start migrating database...")
	// InitDB auto-migrates every model; nothing else to do yet
	fmt.Println("Migration done!")
}

func resetDb() {
	err := database.InitDB(config.GetDBPath())
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := database.ResetDB(); err != nil {
		fmt.Println("reset database failed:", err)
		return
	}
	fmt.Println("database reset")
}

func main() {
	var rootCmd = &cobra.Command{
		Use: "vaio-board",
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var settingCmd = &cobra.Command{
		Use:   "setting",
		Short: "Inspect or change settings",
	}

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Run: func(cmd *cobra.Command, args []string) {
			showSetting()
		},
	}

	var resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Reset the database",
		Run: func(cmd *cobra.Command, args []string) {
			resetDb()
		},
	}

	var setAdminCmd = &cobra.Command{
		Use:   "set-admin",
		Short: "Create the bootstrap admin user",
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			setAdmin(name, username, password)
		},
	}

	setAdminCmd.Flags().String("name", "", "set admin display name")
	setAdminCmd.Flags().String("username", "", "set admin username")
	setAdminCmd.Flags().String("password", "", "set admin password")

	settingCmd.AddCommand(showCmd, resetCmd, setAdminCmd)

	rootCmd.AddCommand(runCmd, migrateCmd, settingCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
