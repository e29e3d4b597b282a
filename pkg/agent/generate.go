package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"nebula-nodeconf/pkg/config"
	nerrors "nebula-nodeconf/pkg/errors"
	"nebula-nodeconf/pkg/model"
	"nebula-nodeconf/pkg/nebula"
	"nebula-nodeconf/pkg/store"
)

// Publisher pushes a rendered node config somewhere other nodes can read it.
type Publisher interface {
	Publish(ctx context.Context, overlayIP string, data []byte) error
}

// Generator renders node.yml from the template for one node.
type Generator struct {
	Settings  config.Settings
	FS        afero.Fs
	Store     store.RunStore // optional
	Publisher Publisher      // optional
	Finalizer Finalizer
	Log       logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

// Result summarizes a successful run.
type Result struct {
	RunID      string
	OutputPath string
	Rules      int
	Published  bool
}

func (g *Generator) defaults() {
	if g.FS == nil {
		g.FS = afero.NewOsFs()
	}
	if g.Log == nil {
		g.Log = logrus.StandardLogger()
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}
}

// Run checks the template, then validates, loads, derives, writes and
// optionally publishes. A missing template fails before anything else
// happens. Past that point the finalizer runs exactly once, whether the run
// succeeds or fails.
func (g *Generator) Run(ctx context.Context, params model.NodeParameters) (res Result, err error) {
	g.defaults()
	s := g.Settings

	if ok, statErr := afero.Exists(g.FS, s.TemplatePath); statErr != nil || !ok {
		if statErr != nil {
			return res, nerrors.Wrapf(statErr, nerrors.KindIO, "stat %s", s.TemplatePath)
		}
		return res, nerrors.Attr(nerrors.Errorf(nerrors.KindNotFound, "failed to locate config file %s", s.TemplatePath), "path", s.TemplatePath)
	}

	rec := model.Run{
		ID:         g.newID(),
		CIDR:       params.CIDR,
		Role:       params.Role(),
		Ports:      params.Ports,
		OutputPath: s.OutputPath,
		StartedAt:  g.now(),
	}
	res.RunID = rec.ID
	log := g.Log.WithField("run", rec.ID)

	defer func() {
		g.record(log, rec, err)
		g.finalize(ctx, log)
	}()

	if err = params.Validate(); err != nil {
		return res, err
	}

	doc, err := nebula.Load(g.FS, s.TemplatePath)
	if err != nil {
		return res, err
	}

	log.WithFields(logrus.Fields{"cidr": params.CIDR, "role": params.Role()}).Info("deriving node config")
	if params.IsLighthouse && params.LighthouseNodeIP != "" {
		log.Debugf("ignoring lighthouse node ip %s for a lighthouse", params.LighthouseNodeIP)
	}
	rules := nebula.InboundRules(params.Ports, params.PortsSet)
	doc = nebula.Deriver{PKIDir: s.RootDir}.Derive(doc, params)
	res.Rules = len(rules)

	if err = nebula.Seed(g.FS, s.TemplatePath, s.OutputPath); err != nil {
		return res, err
	}
	data, err := nebula.Write(g.FS, s.OutputPath, doc)
	if err != nil {
		return res, err
	}
	res.OutputPath = s.OutputPath
	log.WithField("rules", len(rules)).Infof("config written to %s", s.OutputPath)

	if g.Publisher != nil {
		if err = g.Publisher.Publish(ctx, params.OverlayIP(), data); err != nil {
			return res, nerrors.Wrap(err, nerrors.KindUnavailable, "publish node config")
		}
		res.Published = true
		log.Infof("config published for %s", params.OverlayIP())
	}
	return res, nil
}

func (g *Generator) record(log logrus.FieldLogger, rec model.Run, runErr error) {
	if g.Store == nil {
		return
	}
	rec.FinishedAt = g.now()
	rec.Status = model.RunSuccess
	if runErr != nil {
		rec.Status = model.RunFailed
		rec.Detail = runErr.Error()
	}
	if err := g.Store.SaveRun(rec); err != nil {
		log.Warnf("record run history: %v", err)
	}
}

// finalize ignores cancellation of ctx so an interrupted run still gets
// its apply/rollback step.
func (g *Generator) finalize(ctx context.Context, log logrus.FieldLogger) {
	if g.Finalizer == nil {
		return
	}
	if err := g.Finalizer.Finalize(context.WithoutCancel(ctx)); err != nil {
		log.Warnf("finalize failed: %v", err)
		return
	}
	log.Debug("finalize script completed")
}
