package main

import (
	"bytes"
	"context"
	"flag"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"time"

	"workspots/internal/config"
	"workspots/internal/database"
	"workspots/internal/domain/auth"
	"workspots/internal/domain/profile"
	"workspots/internal/domain/upload"
	"workspots/internal/domain/venue"
	"workspots/internal/imaging"
	"workspots/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"gorm.io/gorm"
)

type seedUser struct {
	email, name, job string
	admin            bool
}

type seedVenue struct {
	name, address string
	lat, lng      float64
	status        venue.Status
	amenities     venue.AmenitySet
}

var users = []seedUser{
	{"admin@workspots.dev", "Admin", "Other", true},
	{"ana@workspots.dev", "Ana", "Designer", false},
	{"ben@workspots.dev", "Ben", "Software Developer", false},
	{"cleo@workspots.dev", "Cleo", "Writer", false},
}

var venues = []seedVenue{
	{"Bluebird Coffee", "72 E 1st St, New York", 40.7234, -73.9879, venue.StatusApproved,
		venue.AmenitySet{venue.AmenityWifi, venue.AmenityPowerSocket, venue.AmenityToilets}},
	{"Reading Room Library", "476 5th Ave, New York", 40.7532, -73.9822, venue.StatusApproved,
		venue.AmenitySet{venue.AmenityWifi, venue.AmenityQuietEnvironment, venue.AmenityToilets}},
	{"Pier Bench", "Pier 45, New York", 40.7329, -74.0113, venue.StatusApproved,
		venue.AmenitySet{venue.AmenityWifi}},
	{"Loft Cowork", "55 Water St, Brooklyn", 40.7033, -73.9903, venue.StatusPending,
		venue.AmenitySet{venue.AmenityWifi, venue.AmenityPowerSocket, venue.AmenityQuietEnvironment}},
	{"Noisy Diner", "10 Canal St, New York", 40.7142, -73.9905, venue.StatusRejected,
		venue.AmenitySet{venue.AmenityToilets}},
}

const seedPassword = "workspots123"

func main() {
	reset := flag.Bool("reset", false, "delete existing users and places first")
	flag.Parse()

	logger.SetupDefault(os.Stdout, os.Getenv("LOG_LEVEL"))
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	models := append(auth.Models(), &profile.Profile{}, &venue.Venue{}, &upload.Object{})
	if err := database.Migrate(db, models...); err != nil {
		slog.Error("migrate", "err", err)
		os.Exit(1)
	}

	if *reset {
		slog.Info("cleaning old data")
		for _, m := range []any{&venue.Venue{}, &upload.Object{}, &profile.Profile{}, &auth.ActionToken{}, &auth.RefreshToken{}, &auth.Identity{}} {
			if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				slog.Error("clean table", "err", err)
				os.Exit(1)
			}
		}
	}

	ctx := context.Background()
	ownerID, err := seedUsers(ctx, db)
	if err != nil {
		slog.Error("seed users", "err", err)
		os.Exit(1)
	}
	images := upload.NewImageStore(imaging.NewCompressor(),
		upload.NewStore(upload.NewCatalog(db), upload.NewBucket(cfg.UploadsDir, cfg.StaticURLBase)))
	if err := seedVenues(ctx, db, images, ownerID); err != nil {
		slog.Error("seed places", "err", err)
		os.Exit(1)
	}
	slog.Info("seed completed", "users", len(users), "places", len(venues), "password", seedPassword)
}

// seedUsers returns the id of the first non-admin user.
func seedUsers(ctx context.Context, db *gorm.DB) (string, error) {
	identities := auth.NewRepository(db)
	profiles := profile.NewRepository(db, nil)

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return "", err
	}

	var ownerID string
	now := time.Now().UTC()
	for i, u := range users {
		id := uuid.NewString()
		if err := identities.CreateIdentity(ctx, &auth.Identity{
			ID:            id,
			Email:         u.email,
			PasswordHash:  hash,
			DisplayName:   u.name,
			EmailVerified: true,
			Providers:     auth.Providers{auth.ProviderPassword},
			CreatedAt:     now,
			UpdatedAt:     now,
		}); err != nil {
			if database.IsUniqueViolation(err) {
				slog.Info("user exists, skipping", "email", u.email)
				continue
			}
			return "", err
		}

		p := profile.New(id, u.email, u.name, profile.PlaceholderAvatarURL, profile.VerificationYes)
		p.JobOccupation = u.job
		p.IsAdmin = u.admin
		p.CreatedAt = now.Add(time.Duration(i) * time.Second)
		if err := profiles.Create(ctx, p); err != nil {
			return "", err
		}
		if !u.admin && ownerID == "" {
			ownerID = id
		}
		slog.Info("user created", "email", u.email, "admin", u.admin)
	}
	return ownerID, nil
}

func seedVenues(ctx context.Context, db *gorm.DB, images *upload.ImageStore, ownerID string) error {
	if ownerID == "" {
		slog.Info("no new owner, skipping places")
		return nil
	}
	repo := venue.NewRepository(db, nil)
	now := time.Now().UTC()
	for i, v := range venues {
		url, err := images.StoreImage(ctx, ownerID, venue.ImagePrefix, "seed.png", swatch(i))
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, &venue.Venue{
			ID:        uuid.NewString(),
			UserID:    ownerID,
			Name:      v.name,
			Address:   v.address,
			Lat:       v.lat,
			Lng:       v.lng,
			Amenities: v.amenities,
			Images:    venue.ImageList{url},
			Status:    v.status,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		slog.Info("place created", "name", v.name, "status", v.status)
	}
	return nil
}

var palette = []color.RGBA{
	{0x2f, 0x6f, 0x8f, 0xff},
	{0xe0, 0x9f, 0x3e, 0xff},
	{0x5b, 0x8c, 0x5a, 0xff},
	{0x9e, 0x4a, 0x6b, 0xff},
}

// swatch is a flat placeholder photo.
func swatch(i int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	draw.Draw(img, img.Bounds(), &image.Uniform{palette[i%len(palette)]}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
