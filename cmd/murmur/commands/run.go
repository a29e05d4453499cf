package commands

import (
	"os"

	"github.com/distworks/murmur/src/node"
	"github.com/distworks/murmur/src/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a murmur node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runMurmur,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runMurmur(cmd *cobra.Command, args []string) error {
	logger := _config.Logger()

	if _config.Moniker != "" {
		logger = logger.WithField("moniker", _config.Moniker)
	}

	n := node.NewNode(logger)

	if !_config.NoService {
		serviceServer := service.NewService(_config.ServiceAddr, n, logger)
		go serviceServer.Serve()
	}

	// Stdin and stdout carry the protocol stream. Stdout is written
	// unbuffered, so each reply is visible to the harness before the next
	// message is read.
	if err := n.Run(os.Stdin, os.Stdout); err != nil {
		logger.Error(err)
		return err
	}

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Route log output to a file instead of stderr")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")

	// Service
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP stats service")
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for the HTTP stats service")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	_config.Logger().WithFields(logrus.Fields{
		"DataDir":     _config.DataDir,
		"LogLevel":    _config.LogLevel,
		"LogFile":     _config.LogFile,
		"Moniker":     _config.Moniker,
		"NoService":   _config.NoService,
		"ServiceAddr": _config.ServiceAddr,
	}).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/murmur.toml (.json, .yaml also work)
	viper.SetConfigName("murmur")        // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
