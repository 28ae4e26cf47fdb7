package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"namozvaqti/internal/database"
	"namozvaqti/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// UsersFile is the seed format:
//
//	users:
//	  - user_id: 123
//	    city: Toshkent
//	    daily_notify: true
type UsersFile struct {
	Users []struct {
		UserID      int64  `yaml:"user_id"`
		City        string `yaml:"city"`
		DailyNotify bool   `yaml:"daily_notify"`
	} `yaml:"users"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		usersPath = flag.String("users", "configs/users.yaml", "path to users.yaml")
		dbPath    = flag.String("db", "./data/users.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*usersPath)
	if err != nil {
		return fmt.Errorf("read users: %w", err)
	}
	var file UsersFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse users: %w", err)
	}
	if len(file.Users) == 0 {
		return fmt.Errorf("no users in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	imported := 0
	skipped := 0
	for _, u := range file.Users {
		if u.UserID == 0 {
			skipped++
			continue
		}
		if u.City != "" {
			if err = models.ValidateCity(u.City); err != nil {
				logger.Warn().Int64("user_id", u.UserID).Str("city", u.City).Msg("unknown city, skipped")
				skipped++
				continue
			}
			if err = db.UpsertCity(ctx, u.UserID, u.City); err != nil {
				return fmt.Errorf("city for %d: %w", u.UserID, err)
			}
		}
		if err = db.SetDailyNotify(ctx, u.UserID, u.DailyNotify); err != nil {
			return fmt.Errorf("notify for %d: %w", u.UserID, err)
		}
		imported++
	}

	total, optedIn, err := db.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}

	fmt.Printf("done: imported=%d skipped=%d total=%d opted_in=%d\n", imported, skipped, total, optedIn)
	return nil
}
