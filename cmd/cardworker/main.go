package main

import (
	"context"
	"log/slog"
	"os"

	"enrollment/config"
	"enrollment/internal/delivery"
	"enrollment/internal/delivery/worker"
	"enrollment/internal/delivery/worker/handler"
	"enrollment/internal/domain/service"
	"enrollment/internal/infra/clock"
	logs "enrollment/internal/infra/log"
	"enrollment/internal/infra/persistence/postgres"
	"enrollment/internal/infra/pubsub"
	"enrollment/internal/infra/qrcode"
	"enrollment/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		clock.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewTransactionManager,
			postgres.NewPlanPurchaseRepository,
			postgres.NewMemberRepository,
			postgres.NewECardRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		// The card service depends on a publisher even though the worker never publishes
		pubsub.Module,
		fx.Provide(
			func(cfg *config.Config) service.QRCodeService {
				return qrcode.NewQRCodeService(cfg.Card.QRSize, cfg.Card.QRErrorCorrectionLevel)
			},
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewCardService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewPushHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
