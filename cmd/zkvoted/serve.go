package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/consensys/gnark/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/vocdoni/zkvote-core/api"
	"github.com/vocdoni/zkvote-core/audit"
	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/blobstore"
	"github.com/vocdoni/zkvote-core/circuits"
	"github.com/vocdoni/zkvote-core/config"
	"github.com/vocdoni/zkvote-core/crypto/ethereum"
	"github.com/vocdoni/zkvote-core/election"
	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/prover"
	"github.com/vocdoni/zkvote-core/service"
	"github.com/vocdoni/zkvote-core/storage"
	"github.com/vocdoni/zkvote-core/verifier"
	"go.uber.org/automaxprocs/maxprocs"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"golang.org/x/sync/errgroup"
)

// Service is the life cycle shared by the node services.
type Service interface {
	Start(ctx context.Context) error
	Stop()
}

// serveFlags are command line overrides applied on top of the config file
// and the environment.
type serveFlags struct {
	datadir  string
	logLevel string
	apiPort  int
}

func (f *serveFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.datadir, "datadir", "", "data directory (overrides config)")
	fs.StringVarP(&f.logLevel, "log-level", "l", "", "log level: debug, info, warn or error (overrides config)")
	fs.IntVarP(&f.apiPort, "port", "p", 0, "API port (overrides config)")
}

func (f *serveFlags) apply(fs *flag.FlagSet, cfg *config.Config) {
	if fs.Changed("datadir") {
		cfg.Datadir = f.datadir
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("port") {
		cfg.API.Port = f.apiPort
	}
}

func serveCommand() *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the voting node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			flags.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := initLog(cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func initLog(cfg *config.Config) error {
	var errorOutput io.Writer
	if cfg.Log.ErrorOutput != "" {
		f, err := os.OpenFile(cfg.Log.ErrorOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open error log: %w", err)
		}
		errorOutput = f
	}
	log.Init(cfg.Log.Level, cfg.Log.Output, errorOutput)
	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.Warnw("cannot set GOMAXPROCS", "error", err.Error())
	}
	// gnark logs every proof at info level
	logger.Set(log.Logger().Level(zerolog.WarnLevel))
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Datadir, 0o750); err != nil {
		return fmt.Errorf("cannot create datadir: %w", err)
	}
	log.Infow("starting "+programName, "datadir", cfg.Datadir)

	database, err := metadb.New(db.TypePebble, cfg.Path("db"))
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	stg := storage.New(database)
	defer stg.Close()

	var blobs blobstore.Store
	switch cfg.Blob.Backend {
	case config.BlobBackendBadger:
		if blobs, err = blobstore.NewBadger(cfg.Path(cfg.Blob.Path)); err != nil {
			return err
		}
	default:
		blobs = blobstore.NewLocal(stg)
	}
	defer func() {
		if err := blobs.Close(); err != nil {
			log.Warnw("cannot close blob store", "error", err.Error())
		}
	}()

	auditDSN := cfg.Audit.DSN
	if cfg.Audit.Driver == audit.DriverSQLite {
		if auditDSN == "" {
			auditDSN = "audit"
		}
		auditDSN = cfg.Path(auditDSN)
	}
	auditLog, err := audit.Open(cfg.Audit.Driver, auditDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := auditLog.Close(); err != nil {
			log.Warnw("cannot close audit log", "error", err.Error())
		}
	}()

	artifacts, err := cfg.ArtifactSet()
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		log.Warn("no circuit artifacts configured, every proof will be reported as backend unavailable")
	}
	gate := verifier.NewGate(verifier.NewCircom(artifacts),
		verifier.WithWindow(circuits.Humanity, cfg.Proofs.HumanityWindow),
		verifier.WithWindow(circuits.Authority, cfg.Proofs.AuthorityWindow),
		verifier.WithMaxClockSkew(cfg.Proofs.MaxClockSkew),
	)
	var dispatcher *prover.Dispatcher
	if len(artifacts) > 0 {
		dispatcher = prover.NewDispatcher(prover.NewRapidsnark(artifacts))
	}

	registry := authority.NewRegistry(stg,
		authority.WithGate(gate),
		authority.RequireZKProof(cfg.Authority.RequireZKProof),
		authority.WithUniqueOfficialID(cfg.Authority.UniqueOfficialID),
		authority.WithProofWindow(cfg.Proofs.AuthorityWindow),
		authority.WithAuditLog(auditLog),
	)
	if cfg.Bootstrap.Address != "" {
		addr := common.HexToAddress(cfg.Bootstrap.Address)
		if err := registry.Bootstrap(addr, cfg.Bootstrap.OfficialID); err != nil {
			return fmt.Errorf("cannot bootstrap admin: %w", err)
		}
		log.Infow("bootstrap admin checked", "address", addr.Hex())
	}

	manager, err := election.NewManager(stg, registry, gate, election.WithBlobStore(blobs))
	if err != nil {
		return err
	}

	services := []Service{service.NewAPI(&api.APIConfig{
		Host:       cfg.API.Host,
		Port:       cfg.API.Port,
		Manager:    manager,
		Registry:   registry,
		Dispatcher: dispatcher,
		Blobs:      blobs,
		Audit:      auditLog,
	})}
	if cfg.Monitor.Enabled {
		key := ethereum.NewSignKeys()
		if err := key.AddHexKey(cfg.Monitor.Key); err != nil {
			return fmt.Errorf("monitor key: %w", err)
		}
		services = append(services, service.NewElectionMonitor(manager, registry, key, cfg.Monitor.Interval, nil))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		g.Go(func() error {
			if err := svc.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			svc.Stop()
			return nil
		})
	}
	err = g.Wait()
	log.Infow("stopped "+programName, "reason", context.Cause(gctx))
	return err
}
