// Command seed-official creates or updates an official account. Officials
// cannot self-register through the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/config"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/database"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/logging"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/repository/postgres"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

func main() {
	username := flag.String("username", "", "login name of the official")
	password := flag.String("password", os.Getenv("SEED_OFFICIAL_PASSWORD"), "password (defaults to $SEED_OFFICIAL_PASSWORD)")
	fullName := flag.String("name", "", "display name")
	phone := flag.String("phone", "", "phone number")
	role := flag.String("role", string(entity.RoleWardOfficial), "GROUP_LEADER, WARD_OFFICIAL or ADMIN")
	area := flag.String("area", "", "management area code")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		log.WithError(err).Fatal("could not connect to database")
	}
	defer db.Close()
	if err := database.InitSchema(ctx, db, log); err != nil {
		log.WithError(err).Fatal("could not initialize schema")
	}

	auth := service.NewAuthService(postgres.NewUserRepository(db), nil, service.AuthConfig{
		Secret:      []byte(cfg.JWTSecret),
		TTL:         cfg.JWTExpiration,
		PhoneRegion: cfg.DefaultPhoneRegion,
	}, clockwork.NewRealClock(), log)

	user, err := auth.UpsertOfficial(ctx, service.OfficialInput{
		Username:           *username,
		FullName:           *fullName,
		Phone:              *phone,
		Password:           *password,
		Role:               entity.UserRole(*role),
		ManagementAreaCode: *area,
	})
	if err != nil {
		log.WithError(err).Fatal("could not seed official")
	}
	log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username, "role": user.Role}).Info("official account ready")
}
