package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	jujuerrors "github.com/juju/errors"

	"github.com/kelsodrake/dharma/internal/grammar/generator"
	"github.com/kelsodrake/dharma/internal/logging"
	"github.com/kelsodrake/dharma/internal/wsserver"
)

// serve runs server mode until interrupted, per spec.md §6's --server flag.
func serve(opts options, engine *generator.Engine) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(opts.host, fmt.Sprint(opts.port))
	logging.Get("cmd").Infof("serving test cases on %s", addr)

	srv := wsserver.New(engine)
	if err := srv.Start(ctx, addr); err != nil {
		return jujuerrors.Annotate(err, "websocket server")
	}
	return nil
}
