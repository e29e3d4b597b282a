package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CLI carries per-invocation state shared by the commands.
type CLI struct {
	Name string
	V    *viper.Viper
}

func NewCLI(name string) *CLI {
	return &CLI{Name: name, V: viper.New()}
}

// init lets every flag be set through NEBULA_<FLAG_NAME> as well.
func (cli *CLI) init() {
	cli.V.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cli.V.SetEnvPrefix("NEBULA")
	cli.V.AutomaticEnv()
}

func (cli *CLI) bindFlags(flags *pflag.FlagSet) error {
	return cli.V.BindPFlags(flags)
}

// stringList reads a list value from a flag or a comma separated env var.
func (cli *CLI) stringList(key string) []string {
	var out []string
	for _, v := range cli.V.GetStringSlice(key) {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
