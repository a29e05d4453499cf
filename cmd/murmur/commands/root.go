package commands

import (
	"github.com/distworks/murmur/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for murmur
var RootCmd = &cobra.Command{
	Use:              "murmur",
	Short:            "murmur maelstrom node",
	TraverseChildren: true,
}
