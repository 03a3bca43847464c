package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MicahParks/keyfunc"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"servex-board/board"
	"servex-board/cli"
	"servex-board/client"
	"servex-board/config"
)

func main() {
	cfgPath := os.Getenv("SERVEX_CONFIG")
	if cfgPath == "" {
		cfgPath = "servex-board.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Unable to load configuration, err: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	var jwks *keyfunc.JWKS
	if cfg.Auth.JWKSURL != "" {
		jwks, err = keyfunc.Get(cfg.Auth.JWKSURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("Unable to fetch JWKS from %s, err: %v", cfg.Auth.JWKSURL, err)
		}
		defer jwks.EndBackground()
	}
	session := client.NewSession(cfg.Token, jwks, cfg.Auth.Audience, cfg.Auth.Issuer)
	switch identity, err := session.Identity(); {
	case errors.Is(err, client.ErrNoToken):
		logger.Warn("no session token configured, requests will be unauthenticated")
	case err != nil:
		log.Fatalf("Session token rejected, err: %v", err)
	default:
		logger.Infof("signed in as %s <%s>", identity.Name, identity.Email)
	}

	var staffCache client.StaffCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer rdb.Close()
		staffCache = client.NewRedisStaffCache(rdb, cfg.Redis.StaffTTL)
	} else {
		staffCache = client.NewMemoryStaffCache()
	}

	api := client.New(cfg.APIBaseURL, session.Token(), cfg.RequestTimeout, logger)
	loader := client.NewLoader(api, staffCache, logger)
	ctrl := board.NewController(api, loader, logger, board.Options{
		StrictRollback: cfg.StrictRollback,
		PersistTimeout: cfg.PersistTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(ctrl)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
