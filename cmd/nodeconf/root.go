package main

import (
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"nebula-nodeconf/pkg/agent"
	"nebula-nodeconf/pkg/config"
	"nebula-nodeconf/pkg/consul"
	nerrors "nebula-nodeconf/pkg/errors"
	"nebula-nodeconf/pkg/logging"
	"nebula-nodeconf/pkg/model"
	"nebula-nodeconf/pkg/store"
	"nebula-nodeconf/pkg/version"
)

func RootCmd(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   cli.Name + " <cidr>",
		Short: "Generate a node specific Nebula config from the config.yml template",
		Example: `  nodeconf 10.10.1.1/24 --ports 32348-32349,31800,3000 --lighthouse-node-ip 203.0.113.10
  nodeconf 10.10.1.1/24 --is-lighthouse`,
		Version:       version.Build,
		Args:          rootArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.bindFlags(cmd.Flags()); err != nil {
				return err
			}
			logging.Setup(cli.V.GetBool("debug"))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cli.settings()
			if err != nil {
				return err
			}
			params := cli.nodeParameters(args[0], settings)

			runs := cli.openStore(settings)
			defer runs.Close()

			g := &agent.Generator{
				Settings:  settings,
				FS:        afero.NewOsFs(),
				Store:     runs,
				Finalizer: agent.ScriptFinalizer{Path: settings.ScriptPath},
			}
			if settings.ConsulAddr != "" {
				pub, err := consul.NewPublisher(settings.ConsulAddr, settings.ConsulToken, settings.ConsulPrefix)
				if err != nil {
					return nerrors.Wrap(err, nerrors.KindUnavailable, "consul")
				}
				g.Publisher = pub
			}

			res, err := g.Run(cmd.Context(), params)
			if err != nil {
				return err
			}
			logrus.WithField("run", res.RunID).Infof("node config ready (%d inbound rules added)", res.Rules)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("ports", "", "comma separated ports or port ranges to open over TCP (default: all TCP)")
	flags.Bool("is-lighthouse", false, "configure this node as a lighthouse (takes no value; use --is-lighthouse=true|false to spell it out)")
	flags.String("lighthouse-node-ip", "", "reachable (physical) IP address of the lighthouse node, required unless --is-lighthouse; DNS names are only accepted through --static-host")
	flags.Bool("remote-cli", false, "also open TCP "+model.RemoteCLIPort+" for the remote CLI")
	flags.Bool("grafana", false, "also open TCP "+model.GrafanaPort+" for Grafana")
	flags.StringSlice("static-host", nil, "extra static_host_map entry OVERLAY_IP=HOST[:PORT], HOST may be an IP or DNS name (repeatable)")
	flags.String("consul-addr", "", "publish the rendered config to this Consul agent")
	flags.String("consul-prefix", consul.DefaultPrefix, "Consul KV prefix for published configs")
	flags.String("consul-token", "", "Consul ACL token")

	pflags := cmd.PersistentFlags()
	pflags.String("config-dir", "", "directory holding config.yml, PKI files and export_nebula.sh (default: executable dir)")
	pflags.String("history-db", "", "run history database (default: <config-dir>/history.db)")
	pflags.Bool("no-history", false, "do not persist run history")
	pflags.Bool("debug", false, "enable debug output")

	cmd.AddCommand(HistoryCmd(cli))

	cobra.OnInitialize(func() {
		cli.init()
	})
	return cmd
}

// rootArgs wants exactly the cidr. "--is-lighthouse true" leaves the value
// behind as a second argument, which gets its own hint.
func rootArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 2 && cmd.Flags().Changed("is-lighthouse") {
		if _, err := strconv.ParseBool(args[1]); err == nil {
			return nerrors.Errorf(nerrors.KindValidation, "unexpected argument %q: write --is-lighthouse=%s", args[1], args[1])
		}
	}
	return cobra.ExactArgs(1)(cmd, args)
}

// settings resolves paths and deployment values. It loads <config-dir>/.env
// first so its values are visible through the environment.
func (cli *CLI) settings() (config.Settings, error) {
	root := cli.V.GetString("config-dir")
	if root == "" {
		dir, err := config.DefaultRootDir()
		if err != nil {
			return config.Settings{}, nerrors.Wrap(err, nerrors.KindInternal, "resolve config dir")
		}
		root = dir
	}
	if err := config.LoadDotEnv(root); err != nil {
		logrus.Warnf("ignoring env file: %v", err)
	}

	s := config.New(root)
	if p := cli.V.GetString("history-db"); p != "" {
		s.HistoryPath = p
	}
	if cli.V.GetBool("no-history") {
		s.HistoryPath = ""
	}
	hosts, err := model.ParseStaticHosts(cli.stringList("static-host"))
	if err != nil {
		return s, err
	}
	s.StaticHosts = hosts
	s.ConsulAddr = cli.V.GetString("consul-addr")
	s.ConsulPrefix = cli.V.GetString("consul-prefix")
	s.ConsulToken = cli.V.GetString("consul-token")

	logrus.WithFields(logrus.Fields{
		"template": s.TemplatePath,
		"output":   s.OutputPath,
		"script":   s.ScriptPath,
		"history":  s.HistoryPath,
	}).Debug("resolved paths")
	return s, nil
}

func (cli *CLI) nodeParameters(cidr string, s config.Settings) model.NodeParameters {
	raw := cli.V.GetString("ports")
	explicit := raw != ""
	ports := model.SplitPorts(raw)
	var extras []string
	if cli.V.GetBool("remote-cli") {
		extras = append(extras, model.RemoteCLIPort)
	}
	if cli.V.GetBool("grafana") {
		extras = append(extras, model.GrafanaPort)
	}
	if explicit {
		ports = model.WithExtraPorts(ports, extras...)
	} else if len(extras) > 0 {
		logrus.Debugf("all TCP ports are open already, not adding %v", extras)
	}
	if explicit && len(ports) == 0 {
		logrus.Warnf("--ports %q lists no ports, no TCP port will be opened", raw)
	}
	return model.NodeParameters{
		CIDR:             cidr,
		Ports:            ports,
		PortsSet:         explicit,
		IsLighthouse:     cli.V.GetBool("is-lighthouse"),
		LighthouseNodeIP: cli.V.GetString("lighthouse-node-ip"),
		StaticHosts:      s.StaticHosts,
	}
}

// openStore falls back to an in-memory store when the database cannot be
// opened; history is best effort.
func (cli *CLI) openStore(s config.Settings) store.RunStore {
	if s.HistoryPath == "" {
		return store.NewMemoryStore()
	}
	db, err := store.OpenSQLite(s.HistoryPath)
	if err != nil {
		logrus.Warnf("run history disabled: %v", err)
		return store.NewMemoryStore()
	}
	return db
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func reportError(log logrus.FieldLogger, err error) {
	kind := nerrors.GetKind(err)
	fields := logrus.Fields{"kind": kind.String()}
	for k, v := range nerrors.GetAttributes(err) {
		fields[k] = v
	}
	switch kind {
	case nerrors.KindNotFound:
		log.WithFields(fields).Errorf("cannot continue: %v", err)
	case nerrors.KindValidation:
		log.WithFields(fields).Errorf("invalid input: %v", err)
	default:
		log.WithFields(fields).Error(err)
	}
}
