package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/minsu-dev/parceltrack/config"
	"github.com/minsu-dev/parceltrack/internal/seed"
	"github.com/minsu-dev/parceltrack/internal/services/tracking"
	"github.com/minsu-dev/parceltrack/internal/storage/pgshipment"
)

// Заполняет БД демонстрационными отправлениями. Повторный запуск
// безопасен: история заменяется, дубликатов не появляется.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	st, err := pgshipment.New(cfg.Database.DSN())
	if err != nil {
		panic(err)
	}
	defer st.Close()

	svc := tracking.New(st, nil, 0)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := seed.Apply(ctx, svc); err != nil {
		panic(err)
	}
	logger.Info("seed applied")
}
