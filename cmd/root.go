package cmd

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/0xERR0R/rpzindex/config"
	"github.com/0xERR0R/rpzindex/log"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals
var (
	version    = "undefined"
	buildTime  = "undefined"
	configPath string
	cfg        *config.Config
	apiHost    string
	apiPort    uint16
)

// NewRootCommand creates a new root cli command instance.
func NewRootCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "rpzindex",
		Short: "rpzindex serves an RPZ trigger index over HTTP",
		Long: `rpzindex indexes RPZ zone triggers (QNAME, response IP, NSDNAME,
NSIP) and answers membership lookups for a resolver, without itself
resolving names.

Complete documentation is available at https://github.com/0xERR0R/rpzindex`,
		Run: func(cmd *cobra.Command, args []string) {
			newServeCommand().Run(cmd, args)
		},
	}

	c.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.yml", "path to config file")
	c.PersistentFlags().StringVar(&apiHost, "apiHost", "localhost", "host of the rpzindex API")
	c.PersistentFlags().Uint16Var(&apiPort, "apiPort", 4000, "port of the rpzindex API")

	c.AddCommand(
		newServeCommand(),
		newStatusCommand(),
		NewVersionCommand(),
	)

	return c
}

func apiURL(path string) string {
	return fmt.Sprintf("http://%s:%d%s", apiHost, apiPort, path)
}

//nolint:gochecknoinits
func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	var err error

	cfg, err = config.LoadConfig(configPath, false)
	if err != nil {
		log.Log().Fatalf("can't load config: %s", err)
	}

	log.ConfigureLogger(cfg.Log)

	if len(cfg.API.Addrs) > 0 {
		if host, portStr, err := net.SplitHostPort(cfg.API.Addrs[0]); err == nil {
			if port, err := strconv.ParseUint(portStr, 10, 16); err == nil {
				apiHost = host
				apiPort = uint16(port)
			}
		}
	}
}

// Execute starts the command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
