// Command federated runs a single federate to completion against a
// trivial in-process loopback broker: useful for smoke-testing a
// federate's configuration and interface registration without a real
// co-simulation core. The CLI shape (go-flags, grouped flag structs,
// SIGINT-driven shutdown) follows the teacher's cmd/*ctl harnesses.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/corinnegroth/federate-core/action"
	"github.com/corinnegroth/federate-core/config"
	"github.com/corinnegroth/federate-core/federate"
	"github.com/corinnegroth/federate-core/ftime"
	"github.com/corinnegroth/federate-core/logging"
	"github.com/corinnegroth/federate-core/timecoord"
)

type cmdline struct {
	Federate config.FederateConfig `group:"Federate"`
	Log      config.LogConfig      `group:"Logging"`
}

func main() {
	var args cmdline
	var parser = flags.NewParser(&args, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	var log = logrus.New()
	if err := logging.Configure(log, args.Log); err != nil {
		log.WithError(err).Fatal("invalid logging configuration")
	}

	var ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, args.Federate, log); err != nil {
		log.WithError(err).Fatal("federate run failed")
	}
}

func run(ctx context.Context, cfg config.FederateConfig, log *logrus.Logger) error {
	var queue = action.NewQueue()
	var coord = timecoord.NewLocal()
	coord.SetInfo(timecoord.FedInfo{
		Name:         cfg.Name,
		TimeDelta:    cfg.TimeDeltaTime(),
		Period:       ftime.Time(cfg.Period),
		Offset:       ftime.Time(cfg.Offset),
		InputDelay:   ftime.Time(cfg.InputDelay),
		OutputDelay:  ftime.Time(cfg.OutputDelay),
		ImpactWindow: ftime.Time(cfg.ImpactWindow),
	})

	var sender = action.SenderFunc(func(msg action.Message) {
		log.WithField("command", msg.Action).Debug("outbound action message (no broker attached)")
	})

	var fed = federate.New(cfg.Name, queue, sender, coord, log)

	var runCtx, runCancel = context.WithCancel(ctx)
	defer runCancel()
	go fed.Run(runCtx)

	queue.Push(action.Message{Action: action.CmdFedAck, DestID: 1})
	if state := fed.WaitSetup(runCtx); state != federate.Complete {
		return errors.Errorf("wait setup did not converge: %v", state)
	}
	if state := fed.EnterInitializingState(runCtx); state != federate.Complete {
		return errors.Errorf("enter initializing did not converge: %v", state)
	}
	if state := fed.EnterExecutingState(runCtx); state != federate.Complete {
		return errors.Errorf("enter executing did not converge: %v", state)
	}

	var stopTime = ftime.Time(cfg.StopTime)
	var granted, state = fed.RequestTime(runCtx, stopTime, false)
	if state != federate.Complete {
		return errors.Errorf("request time did not converge: %v", state)
	}
	log.WithField("granted", granted).Info("federate reached requested stop time")

	fed.Stop()
	return nil
}
