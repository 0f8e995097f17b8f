package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ikoiii/booking-futsal/internal/auth"
	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/database"
	"github.com/ikoiii/booking-futsal/internal/logging"
	"github.com/ikoiii/booking-futsal/internal/models"

	"gopkg.in/yaml.v2"
)

type lapanganSeed struct {
	ID          int64    `yaml:"id"`
	Nama        string   `yaml:"nama"`
	Lokasi      string   `yaml:"lokasi"`
	HargaPerJam int64    `yaml:"harga_per_jam"`
	Fasilitas   []string `yaml:"fasilitas"`
	Deskripsi   string   `yaml:"deskripsi"`
	Gambar      string   `yaml:"gambar"`
	Status      string   `yaml:"status"`
}

type lapangansFile struct {
	Lapangans []lapanganSeed `yaml:"lapangans"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath    = flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
		lapangansPath = flag.String("lapangans", "", "path to lapangans.yaml (defaults to seed.lapangans_path)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	base, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := base.With().Str("component", "seed").Logger()

	path := *lapangansPath
	if path == "" {
		path = cfg.Seed.LapangansPath
	}
	lapangans, err := loadLapangans(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	for _, l := range lapangans {
		if err := db.SaveLapangan(ctx, l); err != nil {
			return fmt.Errorf("save %s: %w", l.Nama, err)
		}
		logger.Info().Int64("id", l.ID).Str("nama", l.Nama).Int64("harga_per_jam", l.HargaPerJam).Msg("lapangan seeded")
	}

	created, err := ensureAdmin(ctx, db, cfg)
	if err != nil {
		return err
	}

	logger.Info().Int("lapangans", len(lapangans)).Bool("admin_created", created).Msg("seed done")
	return nil
}

func loadLapangans(path string) ([]*models.Lapangan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lapangans: %w", err)
	}
	var file lapangansFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse lapangans: %w", err)
	}
	if len(file.Lapangans) == 0 {
		return nil, errors.New("no lapangans in yaml")
	}

	out := make([]*models.Lapangan, 0, len(file.Lapangans))
	for _, s := range file.Lapangans {
		if s.Nama == "" || s.HargaPerJam <= 0 {
			return nil, fmt.Errorf("lapangan %d: nama and a positive harga_per_jam are required", s.ID)
		}
		out = append(out, &models.Lapangan{
			ID:          s.ID,
			Nama:        s.Nama,
			Lokasi:      s.Lokasi,
			HargaPerJam: s.HargaPerJam,
			Fasilitas:   s.Fasilitas,
			Deskripsi:   s.Deskripsi,
			Gambar:      s.Gambar,
			Status:      models.LapanganStatus(s.Status),
		})
	}
	return out, nil
}

// ensureAdmin creates the configured admin account unless the email is taken.
func ensureAdmin(ctx context.Context, db *database.DB, cfg *config.Config) (bool, error) {
	if cfg.Seed.AdminEmail == "" || cfg.Seed.AdminPassword == "" {
		return false, nil
	}
	_, err := db.GetUserByEmail(ctx, cfg.Seed.AdminEmail)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Seed.AdminPassword, cfg.Auth.BcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	name := cfg.Seed.AdminName
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{Nama: name, Email: cfg.Seed.AdminEmail, PasswordHash: hash, Role: models.RoleAdmin}
	if err := db.CreateUser(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
